// labels/labels.go
package labels

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"Gin_postgres_redis_swab_tracker/models"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// Service 把 SKU 渲染成 Code128 PNG 并缓存到磁盘
// 旁边放一个 .hash 文件存渲染参数指纹，参数变了就重新出图
type Service struct {
	Dir string
}

func NewService(dir string) *Service { return &Service{Dir: dir} }

func (s *Service) pngPath(sku string) string  { return filepath.Join(s.Dir, sku+".png") }
func (s *Service) hashPath(sku string) string { return filepath.Join(s.Dir, sku+".hash") }

// EnsurePNG 命中缓存（文件在且指纹一致）直接返回路径，否则重渲染
func (s *Service) EnsurePNG(sku string, bs models.BarcodeSettings, settingsHash string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	out := s.pngPath(sku)

	current := ""
	if b, err := os.ReadFile(s.hashPath(sku)); err == nil {
		current = strings.TrimSpace(string(b))
	}
	if current == settingsHash {
		if _, err := os.Stat(out); err == nil {
			return out, nil
		}
	}

	if err := s.render(sku, bs, out); err != nil {
		return "", err
	}
	if err := os.WriteFile(s.hashPath(sku), []byte(settingsHash), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// module_width/height 以 0.1mm 为单位换算成像素（约 10px/mm 的标签打印密度）
func (s *Service) render(sku string, bs models.BarcodeSettings, out string) error {
	code, err := code128.Encode(sku)
	if err != nil {
		return fmt.Errorf("encode %q: %w", sku, err)
	}

	moduleCount := code.Bounds().Dx()
	pxPerModule := int(bs.ModuleWidth * 10)
	if pxPerModule < 1 {
		pxPerModule = 1
	}
	quiet := int(bs.QuietZone * 10)
	width := moduleCount*pxPerModule + 2*quiet
	height := int(bs.ModuleHeight * 10)
	if height < 1 {
		height = 1
	}

	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return fmt.Errorf("scale %q: %w", sku, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, scaled)
}

// Remove 删 swab 时顺带清掉它的标签缓存；文件本来就不在也无所谓
func (s *Service) Remove(sku string) {
	_ = os.Remove(s.pngPath(sku))
	_ = os.Remove(s.hashPath(sku))
}
