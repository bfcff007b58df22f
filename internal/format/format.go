package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	USD  = "USD"
	USDT = "USDT"
	UZS  = "UZS"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// Currency renders an amount the way the screens show it: $1,234.50,
// 5.00 USDT or 63,000 so'm.
func Currency(v float64, code string) string {
	switch strings.ToUpper(code) {
	case UZS:
		return group(strconv.FormatFloat(math.Round(v), 'f', 0, 64)) + " so'm"
	case USDT:
		return group(strconv.FormatFloat(v, 'f', 2, 64)) + " USDT"
	default:
		s := group(strconv.FormatFloat(math.Abs(v), 'f', 2, 64))
		if v < 0 && s != "0.00" {
			return "-$" + s
		}
		return "$" + s
	}
}

// group inserts thousands separators into the integer part of a decimal string
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

// Mb renders a traffic volume given in megabytes
func Mb(v float64) string {
	if v >= 1024 {
		return fmt.Sprintf("%.2f GB", v/1024)
	}
	return fmt.Sprintf("%.1f MB", v)
}

// Speed renders MB/s, falling back to KB/s below 1 MB/s
func Speed(v float64) string {
	switch {
	case v <= 0 || math.IsNaN(v):
		return "-"
	case v >= 1:
		return fmt.Sprintf("%.2f MB/s", v)
	default:
		return fmt.Sprintf("%.0f KB/s", v*1024)
	}
}

// LocalTime converts a server timestamp to loc. Naive timestamps are UTC.
func LocalTime(iso string, loc *time.Location) string {
	if iso == "" {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := parseTimestamp(iso)
	if err != nil {
		return "-"
	}
	return t.In(loc).Format(dateTimeLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
