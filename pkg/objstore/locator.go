package objstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/tabular"
)

const s3Scheme = "s3://"

// Locator places local files in the destination bucket.
type Locator struct {
	Bucket string
	// Prefix is empty or ends with "/".
	Prefix string
}

func NewLocator(cfg config.S3Cfg) Locator {
	return Locator{Bucket: cfg.Bucket, Prefix: cfg.NormalizedPrefix()}
}

// Key is the object key of a local file: the prefix followed by its base name.
func (l Locator) Key(localPath string) string {
	return l.Prefix + filepath.Base(localPath)
}

// URI is the s3:// address of key.
func (l Locator) URI(key string) string {
	return fmt.Sprintf("%s%s/%s", s3Scheme, l.Bucket, key)
}

// Resolve maps the object path given to a bulk load to an s3:// URI. URIs are
// kept as is; anything else names a local file whose uploaded csv is looked
// up under the prefix.
func (l Locator) Resolve(objectPath string) string {
	if strings.HasPrefix(objectPath, s3Scheme) {
		return objectPath
	}
	return l.URI(l.Key(tabular.CSVName(objectPath)))
}
