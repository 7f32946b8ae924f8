package vo

import (
	"path"
	"strings"
)

// Destination key layout.
const (
	PreviewRoot   = "previews"
	ThumbnailRoot = "thumbnails"
	HLSRoot       = "hls"

	PreviewSuffix   = "_preview"
	ThumbnailSuffix = "_thumb.jpg"
)

// DerivationPlan 由源 key 纯函数推导出的全部目标 key
type DerivationPlan struct {
	SourceKey     string
	UserID        string
	FileName      string
	BaseName      string
	PreviewName   string
	ThumbnailName string
	PreviewKey    string
	ThumbnailKey  string
	// HLSPrefix has no trailing slash, e.g. hls/u42/clip.
	HLSPrefix string
}

// Derive maps a source key of the form videos/{userId}/.../{fileName} to its
// destination keys. It is total and pure: keys with fewer segments produce a
// plan with empty fields, and callers reject those via the eligibility check.
func Derive(sourceKey string) DerivationPlan {
	segments := strings.Split(sourceKey, "/")
	p := DerivationPlan{SourceKey: sourceKey}
	if len(segments) >= 2 {
		p.UserID = segments[1]
	}
	p.FileName = segments[len(segments)-1]

	ext := path.Ext(p.FileName)
	p.BaseName = strings.TrimSuffix(p.FileName, ext)
	p.PreviewName = p.BaseName + PreviewSuffix + ext
	p.ThumbnailName = p.BaseName + ThumbnailSuffix

	p.PreviewKey = PreviewRoot + "/" + p.UserID + "/" + p.PreviewName
	p.ThumbnailKey = ThumbnailRoot + "/" + p.UserID + "/" + p.ThumbnailName
	p.HLSPrefix = HLSRoot + "/" + p.UserID + "/" + p.BaseName
	return p
}

// HLSKey returns the destination key of one file inside the adaptive package.
func (p DerivationPlan) HLSKey(fileName string) string {
	return p.HLSPrefix + "/" + fileName
}
