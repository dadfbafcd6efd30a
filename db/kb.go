package db

import (
	"strings"
)

type IssueCode string

func (i IssueCode) Name() string {
	return strings.ReplaceAll(string(i), "_", " ")
}

func (i IssueCode) String() string {
	return string(i)
}

const (
	FileUploadRcePhpCode           IssueCode = "file_upload_rce_php"
	FileUploadRceJspCode           IssueCode = "file_upload_rce_jsp"
	FileUploadRceJspxCode          IssueCode = "file_upload_rce_jspx"
	FileUploadRceImageJspCode      IssueCode = "file_upload_rce_image_jsp"
	FileUploadXssHtmlCode          IssueCode = "file_upload_xss_html"
	FileUploadXssSvgCode           IssueCode = "file_upload_xss_svg"
	FileUploadHtaccessCode         IssueCode = "file_upload_htaccess"
	FileUploadMissingAntivirusCode IssueCode = "file_upload_missing_antivirus"
)

type IssueTemplate struct {
	Code        IssueCode `json:"code" yaml:"code"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Remediation string    `json:"remediation" yaml:"remediation"`
	Cwe         int       `json:"cwe" yaml:"cwe"`
	Severity    string    `json:"severity" yaml:"severity"`
	References  []string  `json:"references" yaml:"references"`
}

const (
	owaspUnrestrictedUpload = "https://owasp.org/www-community/vulnerabilities/Unrestricted_File_Upload"
	owaspUploadCheatSheet   = "https://cheatsheetseries.owasp.org/cheatsheets/File_Upload_Cheat_Sheet.html"
	portswiggerFileUpload   = "https://portswigger.net/web-security/file-upload"
	cwe434                  = "https://cwe.mitre.org/data/definitions/434.html"
	cwe79                   = "https://cwe.mitre.org/data/definitions/79.html"
)

const rceRemediation = "Validate uploaded files against an allow list of extensions and content types, store them outside the web root or on a separate domain, rename them on the server side and make sure the storage location cannot execute server side scripts."

var issueTemplates = []IssueTemplate{
	{
		Code:        FileUploadRcePhpCode,
		Title:       "Remote Code Execution via PHP File Upload",
		Description: "The application accepted an uploaded PHP script and the server executed it when the stored file was requested. An attacker can upload a web shell and run arbitrary commands on the server.",
		Remediation: rceRemediation,
		Cwe:         434,
		Severity:    "Critical",
		References:  []string{owaspUnrestrictedUpload, owaspUploadCheatSheet, cwe434, portswiggerFileUpload},
	},
	{
		Code:        FileUploadRceJspCode,
		Title:       "Remote Code Execution via JSP File Upload",
		Description: "The application accepted an uploaded JSP page and the servlet container evaluated it when the stored file was requested. An attacker can upload a JSP web shell and run arbitrary code on the server.",
		Remediation: rceRemediation,
		Cwe:         434,
		Severity:    "Critical",
		References:  []string{owaspUnrestrictedUpload, owaspUploadCheatSheet, cwe434, portswiggerFileUpload},
	},
	{
		Code:        FileUploadRceJspxCode,
		Title:       "Remote Code Execution via JSPX File Upload",
		Description: "The application accepted an uploaded JSP document in XML syntax and the servlet container evaluated it when the stored file was requested. JSPX files are often missing from extension deny lists that block .jsp.",
		Remediation: rceRemediation,
		Cwe:         434,
		Severity:    "Critical",
		References:  []string{owaspUnrestrictedUpload, owaspUploadCheatSheet, cwe434},
	},
	{
		Code:        FileUploadRceImageJspCode,
		Title:       "Remote Code Execution via JSP Snippet in Uploaded Image",
		Description: "The application accepted a valid image carrying a JSP expression and served it through the JSP engine, which evaluated the embedded snippet. Content validation based on image parsing or magic bytes does not prevent this attack.",
		Remediation: rceRemediation,
		Cwe:         434,
		Severity:    "Critical",
		References:  []string{owaspUnrestrictedUpload, owaspUploadCheatSheet, cwe434, portswiggerFileUpload},
	},
	{
		Code:        FileUploadXssHtmlCode,
		Title:       "Stored Cross-Site Scripting via HTML File Upload",
		Description: "The application stores uploaded HTML documents and serves them inline with a content type browsers render, from the application's own origin. An attacker can upload a page carrying script that runs in the session of any user opening the link.",
		Remediation: "Serve user uploaded files from a separate domain, force a download with Content-Disposition: attachment, set X-Content-Type-Options: nosniff and reject HTML content types on upload.",
		Cwe:         79,
		Severity:    "High",
		References:  []string{owaspUnrestrictedUpload, owaspUploadCheatSheet, cwe79},
	},
	{
		Code:        FileUploadXssSvgCode,
		Title:       "Stored Cross-Site Scripting via SVG File Upload",
		Description: "The application stores uploaded SVG images and serves them inline. SVG is an XML format that can carry script elements, which browsers execute when the image is opened directly.",
		Remediation: "Sanitize SVG uploads by removing script elements and event handlers, serve them from a separate domain or as attachments, and set a restrictive Content-Security-Policy on the file storage location.",
		Cwe:         79,
		Severity:    "High",
		References:  []string{owaspUnrestrictedUpload, owaspUploadCheatSheet, cwe79},
	},
	{
		Code:        FileUploadHtaccessCode,
		Title:       "Apache .htaccess File Upload",
		Description: "The application accepted an uploaded .htaccess file and Apache applied it to the upload directory, enabling directory listings. An attacker controlling .htaccess can also map arbitrary extensions to script handlers and achieve code execution.",
		Remediation: "Reject file names starting with a period, disable AllowOverride for upload directories and store uploads outside the web root.",
		Cwe:         434,
		Severity:    "High",
		References:  []string{owaspUnrestrictedUpload, "https://httpd.apache.org/docs/current/howto/htaccess.html", cwe434},
	},
	{
		Code:        FileUploadMissingAntivirusCode,
		Title:       "Uploaded Files Not Scanned for Malware",
		Description: "The application stored the EICAR antivirus test file and served it back unchanged, which indicates uploaded files are not scanned for malware. The application can be used to distribute malicious files to its users.",
		Remediation: "Scan uploaded files with an antivirus engine before storing them and reject or quarantine files that are flagged.",
		Cwe:         434,
		Severity:    "Medium",
		References:  []string{owaspUploadCheatSheet, "https://www.eicar.org/download-anti-malware-testfile/"},
	},
}

// GetIssueTemplates returns the knowledge base of file upload issues
func GetIssueTemplates() []IssueTemplate {
	templates := make([]IssueTemplate, len(issueTemplates))
	copy(templates, issueTemplates)
	return templates
}

func GetIssueTemplate(code IssueCode) (IssueTemplate, bool) {
	for _, issueTemplate := range issueTemplates {
		if issueTemplate.Code == code {
			return issueTemplate, true
		}
	}
	return IssueTemplate{}, false
}

// GetIssueTemplateByCode returns an issue prefilled from the template, or nil for unknown codes
func GetIssueTemplateByCode(code IssueCode) *Issue {
	issueTemplate, ok := GetIssueTemplate(code)
	if !ok {
		return nil
	}
	return &Issue{
		Code:        string(issueTemplate.Code),
		Title:       issueTemplate.Title,
		Description: issueTemplate.Description,
		Remediation: issueTemplate.Remediation,
		Cwe:         issueTemplate.Cwe,
		Severity:    NewSeverity(issueTemplate.Severity),
		References:  StringSlice(issueTemplate.References),
	}
}
