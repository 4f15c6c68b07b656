package config

import (
	"time"

	"github.com/stagepass/storefront/internal/booking"
)

// LoadBookingConfig builds the reservation session settings. The hold
// window matches the booking service's server-side seat hold TTL; the
// warning threshold is when the UI starts flashing the countdown. Unit
// price and service fee are configuration, not derived from catalog data.
func LoadBookingConfig() booking.Config {
	cfg := booking.Config{
		HoldSeconds:     envInt("HOLD_SECONDS", 300),
		WarnSeconds:     envInt("HOLD_WARN_SECONDS", 60),
		UnitPriceCents:  uint32(envInt("SEAT_PRICE_CENTS", 4500)),
		ServiceFeeCents: uint32(envInt("SERVICE_FEE_CENTS", 350)),
		TickInterval:    time.Second,
	}
	if cfg.HoldSeconds < 1 {
		cfg.HoldSeconds = 300
	}
	if cfg.WarnSeconds < 1 || cfg.WarnSeconds >= cfg.HoldSeconds {
		cfg.WarnSeconds = 60
	}
	return cfg
}
