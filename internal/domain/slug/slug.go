// Package slug はカテゴリ・商品名からURL用の識別子を作る。
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrEmpty = errors.New("slug: empty")

// slug/sku カラムは varchar(255)
const MaxLen = 255

var (
	spaceRun  = regexp.MustCompile(`\s+`)
	nonWord   = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	dashRun   = regexp.MustCompile(`-{2,}`)
	maxSuffix = 10000
)

// 小文字化・空白をハイフン・記号除去・連続ハイフンを1つに。
func Make(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = spaceRun.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return s
}

// 既に使われているかを返す。
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// 衝突したら base-1, base-2 ... を試す。
func Unique(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Make(name)
	if base == "" || base == "-" {
		return "", ErrEmpty
	}

	candidate := clip(base, MaxLen)
	for i := 1; i <= maxSuffix; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		candidate = clip(base, MaxLen-len(suffix)) + suffix
	}
	return "", fmt.Errorf("slug: no free candidate for %q", base)
}

// バリアントSKU: <slug>-<size>-<index>-<unix millis>
// 長すぎる場合はslug側を詰める
func SKU(productSlug, size string, index int, now time.Time) string {
	suffix := fmt.Sprintf("-%s-%d-%d", Make(size), index, now.UnixMilli())
	return clip(productSlug, MaxLen-len(suffix)) + suffix
}

// Makeの出力はASCIIなのでバイト単位で切ってよい
func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) > n {
		s = strings.TrimRight(s[:n], "-")
	}
	return s
}
