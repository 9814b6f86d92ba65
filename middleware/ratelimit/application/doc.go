// Package application contém os casos de uso (regras de aplicação) para rate limit
// e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key) avalia a janela deslizante da chave e retorna
// uma Decision (allow/deny + limit/remaining/reset).
package application
