// Package photo holds the records shared by the indexing and search Lambdas.
package photo

import (
	"fmt"
	"time"
)

// Locator names an object in the photo bucket.
type Locator struct {
	Bucket string
	Key    string
}

func (l Locator) String() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// Capture is the optional camera metadata read from the photo's EXIF block.
type Capture struct {
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	TakenAt  string `json:"takenAt,omitempty"`
	Software string `json:"software,omitempty"`
}

// IsZero reports whether no capture field is set.
func (c *Capture) IsZero() bool {
	return c == nil || *c == Capture{}
}

// Document is the body stored in the search index under a photo's document id.
type Document struct {
	ObjectKey        string   `json:"objectKey"`
	Bucket           string   `json:"bucket"`
	CreatedTimestamp string   `json:"createdTimestamp"`
	Labels           []string `json:"labels"`
	Capture          *Capture `json:"capture,omitempty"`
}

// NewDocument builds the index document for an uploaded object.
func NewDocument(loc Locator, labels []string, now time.Time) Document {
	if labels == nil {
		labels = []string{}
	}
	return Document{
		ObjectKey:        loc.Key,
		Bucket:           loc.Bucket,
		CreatedTimestamp: now.UTC().Format(time.RFC3339),
		Labels:           labels,
	}
}

// Locator returns the object the document describes.
func (d Document) Locator() Locator {
	return Locator{Bucket: d.Bucket, Key: d.ObjectKey}
}

// SearchResult is the presentation form of an indexed photo.
type SearchResult struct {
	URL    string   `json:"url"`
	Labels []string `json:"labels"`
}

// PublicURL is the virtual-hosted S3 URL for an object in region.
func PublicURL(loc Locator, region string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", loc.Bucket, region, loc.Key)
}

// ToResult projects a document for a search response.
func (d Document) ToResult(region string) SearchResult {
	labels := d.Labels
	if labels == nil {
		labels = []string{}
	}
	return SearchResult{
		URL:    PublicURL(d.Locator(), region),
		Labels: labels,
	}
}
