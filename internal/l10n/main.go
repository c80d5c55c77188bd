// Package l10n translates the messages edged-settings shows to its user.
package l10n

import (
	"fmt"

	"github.com/snapcore/go-gettext"
)

var locale gettext.Catalog

func init() {
	domain := gettext.TextDomain{Name: "edged"}
	locale = domain.UserLocale()
}

// T localizes simple strings.
func T(str string, vars ...any) string {
	translation := locale.Gettext(str)
	if len(vars) > 0 {
		translation = fmt.Sprintf(translation, vars...)
	}
	return translation
}

// TN localizes strings with plurals.
func TN(singular, plural string, n uint32, vars ...any) string {
	translation := locale.NGettext(singular, plural, n)
	if len(vars) > 0 {
		translation = fmt.Sprintf(translation, vars...)
	}
	return translation
}
