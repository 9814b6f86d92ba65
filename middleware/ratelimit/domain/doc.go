// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// WindowStore descreve as primitivas do store compartilhado usadas pela
// janela deslizante; Decision é o que o limiter devolve para a camada HTTP.
package domain
