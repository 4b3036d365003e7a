package vision

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/ondrasimku/vision-service/internal/domain"
)

// Class is one entry of the ImageNet class index.
type Class struct {
	ID    string
	Label string
}

// Labels maps output indices of a classifier to classes.
type Labels []Class

// LoadImageNetIndex parses the Keras imagenet_class_index.json layout:
//
//	{"0": ["n01440764", "tench"], "1": ["n01443537", "goldfish"], ...}
func LoadImageNetIndex(r io.Reader) (Labels, error) {
	var raw map[string][2]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode class index: %w", err)
	}

	labels := make(Labels, len(raw))
	for key, entry := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("class index key %q: %w", key, err)
		}
		if idx < 0 || idx >= len(raw) {
			return nil, fmt.Errorf("class index %d out of range [0,%d)", idx, len(raw))
		}
		labels[idx] = Class{ID: entry[0], Label: entry[1]}
	}
	return labels, nil
}

func LoadImageNetIndexFile(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open class index: %w", err)
	}
	defer f.Close()

	return LoadImageNetIndex(f)
}

// TopK returns the k highest scores as predictions, best first. Equal scores
// keep their index order. Indices without a label are reported by number.
func TopK(scores []float32, labels Labels, k int) []domain.Prediction {
	if k > len(scores) {
		k = len(scores)
	}
	if k <= 0 {
		return nil
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	out := make([]domain.Prediction, 0, k)
	for _, i := range idx[:k] {
		p := domain.Prediction{Score: scores[i]}
		if i < len(labels) {
			p.ClassID = labels[i].ID
			p.Label = labels[i].Label
		} else {
			p.Label = strconv.Itoa(i)
		}
		out = append(out, p)
	}
	return out
}
