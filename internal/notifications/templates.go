package notifications

import (
	"bytes"
	"html/template"
)

var approvalTemplate = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html lang="he" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>אישור התנדבות</title>
</head>
<body>
    <p>שלום רב,</p>
    <p>ברצוננו להודיעך כי אושרת כמתנדב עבור {{.Organization}}!</p>
{{- if .WhatsAppLink}}
    <p>לינק לקבוצת הוואצאפ של התחום שבחרת:</p>
    <p><a href="{{.WhatsAppLink}}">לחץ כאן להצטרפות לקבוצת הוואצאפ</a></p>
{{- end}}
    <p>מצורף קובץ הביטוח הלאומי שמולא עבורך.</p>
    <p>מאחלים בהצלחה ושמחים שהצטרפת אלינו!</p>
</body>
</html>
`))

type approvalData struct {
	Organization string
	WhatsAppLink string
}

// RenderApproval returns the HTML body of the approval email.
func RenderApproval(organization, whatsAppLink string) (string, error) {
	var buf bytes.Buffer
	if err := approvalTemplate.Execute(&buf, approvalData{
		Organization: organization,
		WhatsAppLink: whatsAppLink,
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
