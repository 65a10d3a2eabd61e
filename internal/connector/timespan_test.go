package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:15", want: 15 * time.Minute},
		{in: "0:00:01", want: time.Second},
		{in: "01:02:03", want: time.Hour + 2*time.Minute + 3*time.Second},
		{in: "1.02:00:00", want: 26 * time.Hour},
		{in: "00:00:00.5", want: 500 * time.Millisecond},
		{in: "00:00:00.0000001", want: 100 * time.Nanosecond},
		{in: "2", want: 48 * time.Hour},
		{in: " 00:15 ", want: 15 * time.Minute},
		{in: "15s", want: 15 * time.Second},
		{in: "1H30M", want: 90 * time.Minute},
		{in: "", wantErr: true},
		{in: "nonsense", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "00:60", wantErr: true},
		{in: "00:00:00.00000001", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
		{in: "-00:15", wantErr: true},
		{in: "00:00", wantErr: true},
		{in: "0s", wantErr: true},
		{in: "106751", want: 106751 * 24 * time.Hour},
		{in: "106752", wantErr: true},
		{in: "300000", wantErr: true},
		{in: "300000.00:00", wantErr: true},
		{in: "106751.23:59:59.9999999", wantErr: true},
		{in: "9223372036854775807", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, errInvalidPeriod)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
