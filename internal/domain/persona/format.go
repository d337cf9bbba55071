package persona

import "strings"

// digitsOnly drops every rune that is not an ASCII digit.
func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCedula converts typed input into the stored cédula value.
// PRE: none
// POST: Returns only digits, at most MaxCedulaDigits, keeping the rightmost ones
func NormalizeCedula(raw string) string {
	d := digitsOnly(raw)
	if len(d) > MaxCedulaDigits {
		d = d[len(d)-MaxCedulaDigits:]
	}
	return d
}

// FormatCedula renders a stored cédula as NN.NNN.NNN.
// The stored value is never modified; this is display only.
// PRE: none
// POST: Returns exactly 10 characters, zero-padded on the left
func FormatCedula(stored string) string {
	d := NormalizeCedula(stored)
	d = strings.Repeat("0", MaxCedulaDigits-len(d)) + d
	return d[0:2] + "." + d[2:5] + "." + d[5:8]
}

// NormalizeTelefono converts typed input into the stored phone value.
// PRE: none
// POST: Returns only digits, no leading zeros, at most MaxTelefonoDigits
func NormalizeTelefono(raw string) string {
	d := strings.TrimLeft(digitsOnly(raw), "0")
	if len(d) > MaxTelefonoDigits {
		d = d[:MaxTelefonoDigits]
	}
	return d
}

// FormatTelefono renders a stored phone with dashes after the 3rd, 6th and 8th digit.
// A dash is only inserted when more digits follow it.
// PRE: none
// POST: Returns the grouped display form, or "" for an empty value
func FormatTelefono(stored string) string {
	d := NormalizeTelefono(stored)
	var b strings.Builder
	for i, r := range d {
		if i == 3 || i == 6 || i == 8 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}
