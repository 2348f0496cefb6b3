package playlist

import (
	"encoding/xml"
)

// WPL structure based on Windows Media Player playlist format
type WPL struct {
	XMLName xml.Name `xml:"smil"`
	Head    WPLHead  `xml:"head"`
	Body    WPLBody  `xml:"body"`
}

type WPLHead struct {
	Title string    `xml:"title"`
	Meta  []WPLMeta `xml:"meta"`
}

type WPLMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type WPLBody struct {
	Seq WPLSeq `xml:"seq"`
}

type WPLSeq struct {
	Media []WPLMedia `xml:"media"`
}

type WPLMedia struct {
	Src string `xml:"src,attr"`
}

func parseWPL(data []byte) (*Import, error) {
	var wpl WPL
	if err := xml.Unmarshal(data, &wpl); err != nil {
		return nil, err
	}

	im := &Import{Name: wpl.Head.Title}
	for _, media := range wpl.Body.Seq.Media {
		if media.Src == "" {
			continue
		}
		im.Entries = append(im.Entries, Entry{OrigPath: media.Src})
	}
	return im, nil
}
