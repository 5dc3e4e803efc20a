package inventory

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200

	tokenPrefix = "seq:"
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// encodePageToken el token apunta a la secuencia del último movimiento entregado.
func encodePageToken(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(tokenPrefix + strconv.FormatInt(seq, 10)))
}

// decodePageToken "" = primera página (0).
func decodePageToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, domain.ErrInvalidInput
	}
	s, ok := strings.CutPrefix(string(raw), tokenPrefix)
	if !ok {
		return 0, domain.ErrInvalidInput
	}
	seq, err := strconv.ParseInt(s, 10, 64)
	if err != nil || seq <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return seq, nil
}
