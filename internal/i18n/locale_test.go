package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		header   string
		want     domain.Locale
	}{
		{"explicit en wins", "en", "es-ES,es;q=0.9", domain.LocaleEN},
		{"explicit region tag", "es-MX", "en", domain.LocaleES},
		{"unsupported explicit falls to header", "fr", "en-US,en;q=0.8", domain.LocaleEN},
		{"header weights", "", "de-DE,en;q=0.5,es;q=0.9", domain.LocaleES},
		{"nothing", "", "", domain.LocaleES},
		{"garbage header", "", ";;;", domain.LocaleES},
		{"unsupported only", "", "ja-JP", domain.LocaleES},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Negotiate(tt.explicit, tt.header))
		})
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "Reporte Semanal de Tickets", T(domain.LocaleES, KeyWeeklyReportTitle))
	assert.Equal(t, "Weekly Ticket Report", T(domain.LocaleEN, KeyWeeklyReportTitle))
	assert.Equal(t, "Reporte Semanal de Tickets", T(domain.Locale("xx"), KeyWeeklyReportTitle))
	assert.Equal(t, "missing.key", T(domain.LocaleEN, "missing.key"))
}
