package entity

type Image struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}
