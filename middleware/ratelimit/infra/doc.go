// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisWindowStore: janela deslizante em sorted set do Redis (go-redis)
//   - MemoryWindowStore: a mesma janela em memória, para dev e testes
//   - RedisStatsStore / MemoryStatsStore: contadores de decisões
//   - ChanPool: semáforo simples para limite de concorrência
package infra
