package ledger

import "time"

// Config holds tunable ledger parameters.
type Config struct {
	// ReservationTTL is how long a hold stays active before the expiry
	// sweep releases it. Guards against orphaned holds from crashed
	// transactions.
	ReservationTTL time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ReservationTTL: 15 * time.Minute,
	}
}
