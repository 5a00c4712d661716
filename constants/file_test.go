package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExtToFormat(t *testing.T) {
	assert.Equal(t, PDF, MapExtToFormat(".PDF"))
	assert.Equal(t, IMAGE, MapExtToFormat("jpeg"))
	assert.Equal(t, SPREADSHEET, MapExtToFormat(".xlsx"))
	assert.Equal(t, "", MapExtToFormat(".docx"))
	assert.Equal(t, "", MapExtToFormat(""))
}

func TestMapMIMEToFormat(t *testing.T) {
	assert.Equal(t, PDF, MapMIMEToFormat("application/pdf"))
	assert.Equal(t, IMAGE, MapMIMEToFormat(" Image/PNG "))
	assert.Equal(t, SPREADSHEET, MapMIMEToFormat("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet; charset=binary"))
	assert.Equal(t, "", MapMIMEToFormat("application/msword"))
}
