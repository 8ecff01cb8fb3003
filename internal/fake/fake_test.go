package fake

import (
	"net/netip"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPShape(t *testing.T) {
	for range 100 {
		addr, err := netip.ParseAddr(IP())
		require.NoError(t, err)
		assert.True(t, addr.Is4())
	}
}

func TestBankShape(t *testing.T) {
	balance := regexp.MustCompile(`^\$[0-9]{1,3}(,[0-9]{3})*(\.[0-9]{1,2})?$`)
	account := regexp.MustCompile(`^\*{4} \*{4} \*{4} [0-9]{4}$`)
	for range 100 {
		b := Bank()
		assert.Contains(t, data.Banks, b.Bank)
		assert.Regexp(t, balance, b.Balance)
		assert.Regexp(t, account, b.Account)
	}
}

func TestEmailUsesSeed(t *testing.T) {
	e := Email("Neo.Anderson!")
	assert.True(t, strings.HasPrefix(e, "neo.anderson"), e)

	local, domain, ok := strings.Cut(e, "@")
	require.True(t, ok)
	assert.NotEmpty(t, local)
	assert.Contains(t, data.EmailDomains, domain)
}

func TestEmailFallsBackToCodename(t *testing.T) {
	e := Email("☃☃☃")
	local, _, ok := strings.Cut(e, "@")
	require.True(t, ok)
	assert.NotEmpty(t, local)
}

func TestPasswordShape(t *testing.T) {
	for range 100 {
		p := Password()
		assert.Len(t, p, PasswordLength)
		for _, r := range p {
			assert.Contains(t, passwordAlphabet, string(r))
		}
	}
}
