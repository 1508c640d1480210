package invoices

import (
	"crypto/rand"
	"github.com/pkg/errors"
	"math/big"
	"regexp"
	"time"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffixLen = 6
)

var codePattern = regexp.MustCompile(`^INV-\d{8}-[A-Z0-9]{6}$`)

// NewCode returns INV-<YYYYMMDD>-<6 uppercase alphanumerics>. Uniqueness is
// left to the invoices_invoice_code_key index.
func NewCode(now time.Time) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	suffix := make([]byte, codeSuffixLen)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "invoices: random code")
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return "INV-" + now.Format("20060102") + "-" + string(suffix), nil
}

func ValidCode(code string) bool { return codePattern.MatchString(code) }
