package playlist

import (
	"bufio"
	"bytes"
	"strings"
)

const m3uTitleDirective = "#PLAYLIST:"

func parseM3U(data []byte) *Import {
	im := &Import{}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, m3uTitleDirective):
			im.Name = strings.TrimSpace(strings.TrimPrefix(line, m3uTitleDirective))
		case strings.HasPrefix(line, "#"):
		default:
			im.Entries = append(im.Entries, Entry{OrigPath: line})
		}
	}
	return im
}
