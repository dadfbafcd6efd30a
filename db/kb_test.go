package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueTemplatesAreComplete(t *testing.T) {
	seen := map[IssueCode]bool{}
	for _, template := range GetIssueTemplates() {
		assert.False(t, seen[template.Code], "duplicated code %s", template.Code)
		seen[template.Code] = true
		assert.NotEmpty(t, template.Title, template.Code)
		assert.NotEmpty(t, template.Description, template.Code)
		assert.NotEmpty(t, template.Remediation, template.Code)
		assert.NotEmpty(t, template.References, template.Code)
		assert.NotEqual(t, Unknown, NewSeverity(template.Severity), template.Code)
	}
}

func TestGetIssueTemplateByCode(t *testing.T) {
	issue := GetIssueTemplateByCode(FileUploadXssSvgCode)
	if assert.NotNil(t, issue) {
		assert.Equal(t, "file_upload_xss_svg", issue.Code)
		assert.Equal(t, 79, issue.Cwe)
		assert.Equal(t, High, issue.Severity)
	}
	assert.Nil(t, GetIssueTemplateByCode("unknown"))
	assert.Equal(t, "file upload htaccess", FileUploadHtaccessCode.Name())
}
