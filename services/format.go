package services

import (
	"fmt"
	"strconv"
	"time"
)

var (
	indonesianDays = [...]string{
		"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu",
	}
	indonesianMonths = [...]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
)

// FormatRupiah renders a whole-rupiah amount with dot thousands
// grouping, e.g. 15000 becomes "Rp. 15.000". Negative amounts clamp to
// zero; prices and totals are never negative in this system.
func FormatRupiah(amount int64) string {
	if amount < 0 {
		amount = 0
	}
	digits := strconv.FormatInt(amount, 10)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, d)
	}
	return "Rp. " + string(grouped)
}

// FormatMenuDate renders a serving date for display, e.g. "2025-01-06"
// becomes "Senin, 6 Januari 2025". An empty date reads as unknown; a
// date that does not parse is shown as-is.
func FormatMenuDate(servingDate string) string {
	if servingDate == "" {
		return "Tanggal tidak diketahui"
	}
	t, err := time.Parse(menuDateLayout, servingDate)
	if err != nil {
		return servingDate
	}
	return fmt.Sprintf("%s, %d %s %d",
		indonesianDays[t.Weekday()], t.Day(), indonesianMonths[t.Month()-1], t.Year())
}
