package codec

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind определяет, в какой форме записан идентификатор
type Kind int

const (
	KindUnknown Kind = iota
	KindAID
	KindBVID
)

// String возвращает имя формы
func (k Kind) String() string {
	switch k {
	case KindAID:
		return "aid"
	case KindBVID:
		return "bvid"
	default:
		return "unknown"
	}
}

// ParseAID разбирает числовой идентификатор в формах "170001", "av170001" и "AV170001"
func ParseAID(s string) (uint64, error) {
	digits := strings.TrimSpace(s)
	if len(digits) > 2 && strings.EqualFold(digits[:2], "av") {
		digits = digits[2:]
	}
	if strings.HasPrefix(digits, "-") {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, s)
	}
	if !isDigits(digits) {
		return 0, fmt.Errorf("%w: %q is not an aid", ErrInvalidFormat, s)
	}
	aid, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		// строка из одних цифр не парсится только при переполнении
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, s)
	}
	if aid >= MaxAID {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, aid)
	}
	return aid, nil
}

// Extract достаёт идентификатор из строки: голого BV/av или ссылки на видео вида
// https://www.bilibili.com/video/BV1L9Uoa9EUx/?p=1.
// Возвращает найденный идентификатор и его форму.
func Extract(s string) (string, Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", KindUnknown, fmt.Errorf("%w: empty identifier", ErrInvalidFormat)
	}
	candidate := s
	if strings.Contains(s, "/") {
		u, err := url.Parse(s)
		if err != nil {
			return "", KindUnknown, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		candidate = lastSegment(u.Path)
		if candidate == "" {
			return "", KindUnknown, fmt.Errorf("%w: no identifier in %q", ErrInvalidFormat, s)
		}
	}
	switch {
	case strings.HasPrefix(candidate, Prefix):
		return candidate, KindBVID, nil
	case len(candidate) > 2 && strings.EqualFold(candidate[:2], "av"):
		return candidate, KindAID, nil
	case isDigits(candidate):
		return candidate, KindAID, nil
	}
	return "", KindUnknown, fmt.Errorf("%w: %q is neither aid nor bvid", ErrInvalidFormat, candidate)
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	return path[strings.LastIndex(path, "/")+1:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
