package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SKUSequence stores the last allocated sequence number for one SKU prefix.
// The row is mutated only by the allocator, under an exclusive row lock.
type SKUSequence struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Prefix     string `gorm:"type:varchar(15);not null;uniqueIndex"`
	LastNumber int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SKUSequence) TableName() string {
	return "sku_sequences"
}

// SequenceAllocator issues monotonically increasing integers per SKU prefix.
// Allocate must be safe under concurrent callers: no two callers may observe
// the same number for the same prefix, and distinct prefixes must not block
// each other.
type SequenceAllocator interface {
	// Allocate returns the next number for the prefix, incrementing the
	// stored counter under an exclusive lock.
	Allocate(ctx context.Context, prefix string) (int64, error)

	// Peek returns the last allocated number without locking or incrementing.
	// Returns 0 for a prefix that has never allocated.
	Peek(ctx context.Context, prefix string) (int64, error)
}

// SKUPrefixPart derives a fixed 3-character prefix part from a name: the
// first word's first 3 characters uppercased, plus the second word's first
// 2 characters if present, then truncated or right-padded with 'X' to
// exactly 3 characters.
func SKUPrefixPart(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		words = []string{"GEN"}
	}

	// Slice runes, not bytes: a multi-byte character must not be split.
	first := []rune(words[0])
	if len(first) > 3 {
		first = first[:3]
	}
	result := []rune(strings.ToUpper(string(first)))

	if len(words) > 1 {
		second := []rune(words[1])
		if len(second) > 2 {
			second = second[:2]
		}
		result = append(result, []rune(strings.ToUpper(string(second)))...)
	}

	if len(result) > 3 {
		return string(result[:3])
	}
	return string(result) + strings.Repeat("X", 3-len(result))
}

// SKUPrefix combines the category and product prefix parts, e.g. "ELE-SMA"
func SKUPrefix(categoryName, productName string) string {
	if categoryName == "" {
		categoryName = "GEN"
	}
	if productName == "" {
		productName = "PRD"
	}
	return SKUPrefixPart(categoryName) + "-" + SKUPrefixPart(productName)
}

// FormatSKU renders a prefix and sequence number as a SKU string. Sequence
// numbers are zero-padded to 4 digits; past 9999 the number widens and the
// SKU exceeds the nominal 12-character width.
func FormatSKU(prefix string, number int64) string {
	return fmt.Sprintf("%s-%04d", prefix, number)
}

// SKUGenerator produces structured SKUs backed by a SequenceAllocator.
type SKUGenerator struct {
	allocator SequenceAllocator
	logger    *zap.Logger
}

// NewSKUGenerator creates a new SKU generator
func NewSKUGenerator(allocator SequenceAllocator, logger *zap.Logger) *SKUGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SKUGenerator{allocator: allocator, logger: logger}
}

// Generate allocates the next sequence number for the derived prefix and
// returns the structured SKU. If allocation fails for any reason the error
// is swallowed and a fallback SKU built from a random suffix and timestamp
// is returned instead; the fallback is unique but does not match the
// structured format, and is never retried here.
func (g *SKUGenerator) Generate(ctx context.Context, categoryName, productName string) string {
	prefix := SKUPrefix(categoryName, productName)

	number, err := g.allocator.Allocate(ctx, prefix)
	if err != nil {
		g.logger.Error("sku sequence allocation failed, using fallback",
			zap.String("prefix", prefix),
			zap.Error(err))
		return FallbackSKU()
	}

	return FormatSKU(prefix, number)
}

// Preview computes the next SKU without allocating. It reads last_number+1
// without a lock, so the result is advisory only: a concurrent Generate may
// take the previewed number first.
func (g *SKUGenerator) Preview(ctx context.Context, categoryName, productName string) (string, error) {
	prefix := SKUPrefix(categoryName, productName)

	last, err := g.allocator.Peek(ctx, prefix)
	if err != nil {
		return "", err
	}

	return FormatSKU(prefix, last+1), nil
}

// FallbackSKU builds a degraded-but-unique SKU from a random suffix and the
// current time, used when sequence allocation is unavailable.
func FallbackSKU() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("SKU-%s-%s", suffix, time.Now().Format("150405"))
}
