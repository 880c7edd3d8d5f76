package workbook

import (
	"strings"
	"testing"

	"github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/nmapxlsx/internal/report"
)

func TestScriptNote(t *testing.T) {
	host, services := webServices()

	t.Run("no scripts means no note", func(t *testing.T) {
		text, ok := scriptNote(host, services[0])
		assert.False(t, ok)
		assert.Empty(t, text)
	})

	t.Run("single script", func(t *testing.T) {
		text, ok := scriptNote(host, services[1])
		require.True(t, ok)
		assert.Contains(t, text, "ssl-cert")
		assert.Contains(t, text, "foo")

		var decoded map[string][]any
		require.NoError(t, yaml.Unmarshal([]byte(text), &decoded))
		assert.Equal(t, map[string][]any{
			"ssl-cert": {"foo", map[string]any{}},
		}, decoded)
	})

	t.Run("structured output and sorted ids", func(t *testing.T) {
		svc := report.NewService(&nmap.Port{
			Scripts: []nmap.Script{
				{
					ID:       "ssh-hostkey",
					Output:   "\n  256 aa:bb (ECDSA)",
					Elements: []nmap.Element{{Key: "bits", Value: "256"}},
				},
				{ID: "banner", Output: "SSH-2.0-OpenSSH_9.6"},
			},
		})

		text, ok := scriptNote(host, svc)
		require.True(t, ok)
		assert.Less(t, strings.Index(text, "banner"), strings.Index(text, "ssh-hostkey"))

		var decoded map[string][]any
		require.NoError(t, yaml.Unmarshal([]byte(text), &decoded))
		require.Len(t, decoded["ssh-hostkey"], 2)
		assert.Equal(t, "\n  256 aa:bb (ECDSA)", decoded["ssh-hostkey"][0])
		assert.Equal(t, map[string]any{"bits": "256"}, decoded["ssh-hostkey"][1])
	})

	t.Run("surrounding newlines survive", func(t *testing.T) {
		outputs := []string{
			"\n  VULNERABLE:\n  State: LIKELY VULNERABLE",
			"trailing\n",
			"\n",
			"plain",
		}
		for _, output := range outputs {
			svc := report.NewService(&nmap.Port{
				Scripts: []nmap.Script{{
					ID:     "ssl-poodle",
					Output: output,
					Tables: []nmap.Table{{Key: "note", Elements: []nmap.Element{{Key: "text", Value: "\nstarts on a new line"}}}},
				}},
			})

			text, ok := scriptNote(host, svc)
			require.True(t, ok)

			var decoded map[string][]any
			require.NoError(t, yaml.Unmarshal([]byte(text), &decoded), text)
			require.Len(t, decoded["ssl-poodle"], 2)
			assert.Equal(t, output, decoded["ssl-poodle"][0])
			assert.Equal(t, map[string]any{
				"note": map[string]any{"text": "\nstarts on a new line"},
			}, decoded["ssl-poodle"][1])
		}
	})
}

func TestNoteHeight(t *testing.T) {
	assert.Equal(t, uint(noteMinHeight), noteHeight("one line"))
	assert.Equal(t, uint(12*noteLineHeight), noteHeight(strings.Repeat("x\n", 10)+"x"))
	assert.Equal(t, uint(noteMaxHeight), noteHeight(strings.Repeat("x\n", 500)))
}
