package reporters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReporter(t *testing.T) {
	settings := ReporterSettings{BaseURL: "https://somewhere"}

	testCases := map[string]interface{}{
		"json":  JsonReporter{},
		"xlsx":  XlsxReporter{},
		"sarif": SarifReporter{},
		"http":  HttpReporter{},
	}
	for format, expected := range testCases {
		t.Run(format, func(t *testing.T) {
			reporter, err := CreateReporter(format, settings)
			require.NoError(t, err)
			assert.IsType(t, expected, reporter)
		})
	}
}

func TestCreateReporter_Errors(t *testing.T) {
	_, err := CreateReporter("pdf", ReporterSettings{})
	assert.EqualError(t, err, "unknown report format: pdf")

	_, err = CreateReporter("http", ReporterSettings{})
	assert.Error(t, err)
}
