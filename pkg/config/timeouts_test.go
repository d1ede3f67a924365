package config

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		want     time.Duration
		minValue time.Duration
	}{
		{
			name:     "LeaseClientTimeout",
			got:      LeaseClientTimeout,
			want:     5 * time.Second,
			minValue: time.Second,
		},
		{
			name:     "ReleaseTimeout",
			got:      ReleaseTimeout,
			want:     5 * time.Second,
			minValue: time.Second,
		},
		{
			name:     "WatchReconnectDelay",
			got:      WatchReconnectDelay,
			want:     5 * time.Second,
			minValue: time.Second,
		},
		{
			name:     "WatchSettleDelay",
			got:      WatchSettleDelay,
			want:     2 * time.Second,
			minValue: time.Second,
		},
		{
			name:     "ShutdownTimeout",
			got:      ShutdownTimeout,
			want:     10 * time.Second,
			minValue: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}

			if tt.got < tt.minValue {
				t.Errorf("%s = %v is below minimum reasonable value %v", tt.name, tt.got, tt.minValue)
			}
		})
	}
}

func TestTimeoutRelationships(t *testing.T) {
	// The settle delay must be shorter than the reconnect delay, otherwise
	// a watch event could never finish settling before the stream
	// restarts underneath it.
	if WatchSettleDelay >= WatchReconnectDelay {
		t.Errorf("WatchSettleDelay (%v) should be less than WatchReconnectDelay (%v)",
			WatchSettleDelay, WatchReconnectDelay)
	}
}
