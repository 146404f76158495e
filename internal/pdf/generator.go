package pdf

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"civicportal/internal/storage"
	"civicportal/pkg/types"
)

const (
	contentType = "application/pdf"
	keyPrefix   = "documents"
)

var typePrefixes = map[types.DocumentType]string{
	types.DocumentTypeIDCard:         "KTP",
	types.DocumentTypeFamilyRegister: "KK",
	types.DocumentTypeBirthCert:      "AKTA_LAHIR",
	types.DocumentTypeDeathCert:      "AKTA_KEMATIAN",
}

// TypePrefix is the storage file name prefix for docType.
func TypePrefix(docType types.DocumentType) string {
	if p, ok := typePrefixes[docType]; ok {
		return p
	}
	return "DOC"
}

// Generator renders documents and stores them under
// documents/<PREFIX>_<id>_<unix nanos>.pdf.
type Generator struct {
	renderer Renderer
	store    storage.Store
	timeout  time.Duration
	now      func() time.Time
}

func NewGenerator(renderer Renderer, store storage.Store, timeout time.Duration) *Generator {
	return &Generator{
		renderer: renderer,
		store:    store,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Generate renders req and writes it to storage, returning the storage key.
// Rendering and upload together are bounded by the generator timeout.
func (g *Generator) Generate(ctx context.Context, req *types.DocumentRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	data, err := g.render(ctx, req)
	if err != nil {
		return "", err
	}

	key := path.Join(keyPrefix, fmt.Sprintf("%s_%s_%d.pdf", TypePrefix(req.Type), req.ID, g.now().UnixNano()))
	if err := g.store.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}

	return key, nil
}

func (g *Generator) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	return g.store.Open(ctx, key)
}

func (g *Generator) Remove(ctx context.Context, key string) error {
	return g.store.Delete(ctx, key)
}

func (g *Generator) render(ctx context.Context, req *types.DocumentRequest) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}

	done := make(chan result, 1)
	go func() {
		data, err := g.renderer.Render(ctx, req)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("render %s: %w", req.ID, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("render %s: %w", req.ID, res.err)
		}
		return res.data, nil
	}
}
