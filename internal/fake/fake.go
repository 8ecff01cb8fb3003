// Package fake generates random, obviously fictional personal data for the
// hack simulation. Nothing here is cryptographically random.
package fake

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/lucasepe/codename"
	"gopkg.in/yaml.v3"
)

// PasswordLength is the length of every generated password.
const PasswordLength = 14

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

//go:embed data.yaml
var rawData []byte

var data = mustLoad(rawData)

type content struct {
	Banks        []string `yaml:"banks"`
	EmailDomains []string `yaml:"email_domains"`
}

func mustLoad(raw []byte) content {
	var c content
	if err := yaml.Unmarshal(raw, &c); err != nil {
		panic(fmt.Sprintf("fake: bad embedded data: %v", err))
	}
	if len(c.Banks) == 0 || len(c.EmailDomains) == 0 {
		panic("fake: embedded data is missing banks or email domains")
	}
	return c
}

func pick(list []string) string {
	return list[rand.IntN(len(list))]
}

// IP returns a random public looking IPv4 address.
func IP() string {
	return fmt.Sprintf("%d.%d.%d.%d", 1+rand.IntN(223), rand.IntN(256), rand.IntN(256), 1+rand.IntN(254))
}

// BankAccount is a fictional bank account.
type BankAccount struct {
	Bank    string
	Balance string
	Account string
}

// Bank returns a random bank, a formatted balance and a masked account number.
func Bank() BankAccount {
	cents := rand.Int64N(10_000_000_00)
	return BankAccount{
		Bank:    pick(data.Banks),
		Balance: "$" + humanize.CommafWithDigits(float64(cents)/100, 2),
		Account: fmt.Sprintf("**** **** **** %04d", rand.IntN(10000)),
	}
}

// Email derives an address from seed, falling back to a random codename when
// seed has no usable characters.
func Email(seed string) string {
	local := sanitize(seed)
	if local == "" {
		local = strings.ReplaceAll(Codename(), "-", ".")
	}
	if rand.IntN(2) == 0 {
		local += fmt.Sprintf("%d", rand.IntN(1000))
	}
	return local + "@" + pick(data.EmailDomains)
}

// Password returns a random password of PasswordLength characters drawn from
// letters, digits and a few symbols.
func Password() string {
	var b strings.Builder
	b.Grow(PasswordLength)
	for range PasswordLength {
		b.WriteByte(passwordAlphabet[rand.IntN(len(passwordAlphabet))])
	}
	return b.String()
}

// Codename returns a random two word name such as "brave-falcon".
func Codename() string {
	rng, err := codename.DefaultRNG()
	if err != nil {
		return fmt.Sprintf("anon-%04d", rand.IntN(10000))
	}
	return codename.Generate(rng, 0)
}

func sanitize(seed string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(seed) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._-")
}
