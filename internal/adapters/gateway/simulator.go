package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sistema_hotel/internal/domain"
)

// Simulator is an in-process stand-in for the card network, used when no
// GATEWAY_BASE_URL is configured. Decisions are deterministic so demo
// flows and tests behave the same on every run: any card number ending
// in 0002 is declined, everything else is approved.
type Simulator struct{}

func NewSimulator() *Simulator { return &Simulator{} }

func (s *Simulator) Authorize(_ context.Context, ref string, _ domain.Cents, card domain.CardDetails) (string, error) {
	if strings.HasSuffix(card.Number, "0002") {
		return "", fmt.Errorf("%w: issuer refused", domain.ErrCardDeclined)
	}
	_ = ref
	return "SIM-" + uuid.NewString(), nil
}
