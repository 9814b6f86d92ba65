package application

import "sync/atomic"

// Switch liga/desliga a aplicação do rate limit para todos os limiters que
// o compartilham. Desligado, o limiter continua fazendo a contabilidade
// (headers continuam corretos), mas nunca bloqueia.
//
// Pensado para testes e manutenção controlada, não como feature flag.
type Switch struct {
	disabled atomic.Bool
}

func NewSwitch(enabled bool) *Switch {
	s := &Switch{}
	s.disabled.Store(!enabled)
	return s
}

func (s *Switch) Enable()  { s.disabled.Store(false) }
func (s *Switch) Disable() { s.disabled.Store(true) }

// Enabled: um Switch nil conta como ligado.
func (s *Switch) Enabled() bool {
	if s == nil {
		return true
	}
	return !s.disabled.Load()
}
