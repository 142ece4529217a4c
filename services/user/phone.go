package user

import (
	"strconv"
	"strings"
)

// InternationalPhone rewrites a leading 0 to +234 and leaves anything else
// untouched.
func InternationalPhone(phone string) string {
	if strings.HasPrefix(phone, "0") {
		return "+234" + phone[1:]
	}
	return phone
}

// JoinPhone renders a prefix and subscriber number as +<prefix><number>
// with the number's leading zeros removed.
func JoinPhone(p *PhoneInput) (string, bool) {
	if p == nil {
		return "", false
	}

	number, err := strconv.ParseUint(strings.TrimSpace(p.Number), 10, 64)
	if err != nil {
		return "", false
	}

	prefix := strings.TrimPrefix(strings.TrimSpace(p.Prefix), "+")
	if prefix == "" {
		return "", false
	}

	return "+" + prefix + strconv.FormatUint(number, 10), true
}
