package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrustedProxies(t *testing.T) {
	nets, err := ParseTrustedProxies([]string{"127.0.0.1", " ::1 ", "", "172.16.0.0/12"})
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.Equal(t, "127.0.0.1/32", nets[0].String())
	assert.Equal(t, "::1/128", nets[1].String())
	assert.Equal(t, "172.16.0.0/12", nets[2].String())

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)

	nets, err = ParseTrustedProxies(nil)
	require.NoError(t, err)
	assert.Empty(t, nets)
}

func TestReadUserIP(t *testing.T) {
	trustedProxies, err := ParseTrustedProxies([]string{"10.0.0.1", "172.16.0.0/12"})
	require.NoError(t, err)

	cases := map[string]struct {
		remoteAddr    string
		realIP        string
		forwardedFor  string
		expectedIP    string
		expectedError bool
	}{
		"remote addr with port": {
			remoteAddr: "83.12.53.65:2145",
			expectedIP: "83.12.53.65",
		},
		"headers from untrusted peer ignored": {
			remoteAddr:   "83.12.53.65:2145",
			realIP:       "111.12.56.65",
			forwardedFor: "93.184.216.34",
			expectedIP:   "83.12.53.65",
		},
		"real ip header from trusted proxy": {
			remoteAddr: "10.0.0.1:1234",
			realIP:     "111.12.56.65",
			expectedIP: "111.12.56.65",
		},
		"forwarded for, rightmost untrusted entry": {
			remoteAddr:   "10.0.0.1:1234",
			forwardedFor: "1.2.3.4, 93.184.216.34, 172.18.0.3",
			expectedIP:   "93.184.216.34",
		},
		"trusted proxy without headers": {
			remoteAddr: "172.20.0.1:5555",
			expectedIP: "172.20.0.1",
		},
		"ipv6 remote addr": {
			remoteAddr: "[2001:db8::1]:443",
			expectedIP: "2001:db8::1",
		},
		"garbage": {
			remoteAddr:    "not-an-ip",
			expectedError: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				req.Header.Set("X-Real-Ip", tc.realIP)
			}
			if tc.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tc.forwardedFor)
			}

			ip, err := ReadUserIP(req, trustedProxies)
			if tc.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedIP, ip)
		})
	}
}
