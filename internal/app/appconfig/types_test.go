package appconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailTransportDecode(t *testing.T) {
	var tr MailTransport
	require.NoError(t, tr.Decode(" SMTP "))
	assert.Equal(t, MailTransportSMTP, tr)

	require.NoError(t, tr.Decode("postmark"))
	assert.Equal(t, MailTransportPostmark, tr)

	assert.Error(t, tr.Decode("sendmail"))
}
