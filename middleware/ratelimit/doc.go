// Package ratelimit fornece adapters HTTP (net/http) para rate limit de janela
// deslizante e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (janela deslizante, switch global, acquire/timeout)
//   - infra: implementações concretas (Redis sorted set, memória, semáforo, stats)
//   - ratelimit (este pacote): middlewares HTTP + derivação de chave + headers/status
//
// Fluxo por request:
//
//  1. Deriva a chave "<prefix>:<hash>" (X-Forwarded-For / RemoteAddr / API key)
//  2. Service.Decide poda a janela, conta, decide e registra no store
//  3. Define X-RateLimit-Limit/Remaining/Reset
//  4. Bloqueado: 429 com {"detail": "..."}; permitido: chama o próximo handler
//
// Se o store falhar, o request passa (fail-open) com Remaining = limite-1 e
// Reset = janela; a falha vai só para o log.
package ratelimit
