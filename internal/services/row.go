package services

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/uclergnlts/tav-egitim/internal/models"
)

// Cell is one spreadsheet cell as sent by the client: a JSON string or
// number (booleans and null are tolerated).
type Cell struct {
	text  string
	num   float64
	isNum bool
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*c = Cell{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cell{text: s}
		return nil
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*c = Cell{text: string(b)}
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("cell: unsupported value %s", b)
	}
	*c = Cell{num: f, isNum: true}
	return nil
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.isNum {
		return json.Marshal(c.num)
	}
	return json.Marshal(c.text)
}

// String returns the trimmed text; whole numbers print without decimals.
func (c Cell) String() string {
	if c.isNum {
		if c.num == math.Trunc(c.num) && math.Abs(c.num) < 1e15 {
			return strconv.FormatInt(int64(c.num), 10)
		}
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	}
	return strings.TrimSpace(c.text)
}

// Float returns the numeric value of a number cell or a numeric string.
func (c Cell) Float() (float64, bool) {
	if c.isNum {
		return c.num, true
	}
	s := strings.ReplaceAll(c.String(), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Row is one parsed spreadsheet row keyed by column name.
type Row map[string]Cell

// Str returns the trimmed text of key, "" when absent.
func (r Row) Str(key string) string { return r[key].String() }

var (
	errEmpty       = errors.New("empty")
	excelEpoch     = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	dateLayouts    = []string{models.DateLayout, "02.01.2006", "2.1.2006", "02/01/2006", "2/1/2006", time.RFC3339}
	clockLayouts   = []string{"15:04", "15:04:05"}
	maxExcelSerial = 2958465.0 // 9999-12-31
)

// ParseDate normalises a date cell to YYYY-MM-DD. It accepts ISO dates,
// DD.MM.YYYY, DD/MM/YYYY, RFC 3339 timestamps and Excel serial numbers.
func ParseDate(c Cell) (string, error) {
	if c.isNum {
		return excelSerialDate(c.num)
	}
	s := c.String()
	if s == "" {
		return "", errEmpty
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.DateLayout), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return excelSerialDate(f)
	}
	return "", fmt.Errorf("geçersiz tarih %q", s)
}

func excelSerialDate(f float64) (string, error) {
	if f < 1 || f > maxExcelSerial {
		return "", fmt.Errorf("geçersiz tarih %v", f)
	}
	return excelEpoch.AddDate(0, 0, int(f)).Format(models.DateLayout), nil
}

// ParseClock normalises a time cell to HH:MM. It accepts HH:MM, HH:MM:SS
// and Excel day fractions (0.5 is 12:00); an empty cell gives "".
func ParseClock(c Cell) (string, error) {
	if c.isNum {
		return excelFraction(c.num)
	}
	s := c.String()
	if s == "" {
		return "", nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.ClockLayout), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f < 1 {
		return excelFraction(f)
	}
	return "", fmt.Errorf("geçersiz saat %q", s)
}

func excelFraction(f float64) (string, error) {
	if f < 0 {
		return "", fmt.Errorf("geçersiz saat %v", f)
	}
	_, frac := math.Modf(f)
	mins := int(math.Round(frac*24*60)) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60), nil
}
