// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/trainer/internal/config"
	"github.com/born-ml/trainer/internal/dataset"
	"github.com/born-ml/trainer/internal/metrics"
	"github.com/born-ml/trainer/internal/model"
)

func syntheticConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dataset = config.DatasetSynthetic
	cfg.MaxSamples = 40
	cfg.BatchSize = 20
	cfg.EvalBatchSize = 16
	cfg.Epochs = 1
	cfg.LearningRate = 0.005
	cfg.MetricsPath = filepath.Join(t.TempDir(), "out", "metrics.json")
	return cfg
}

func TestRunWritesMetrics(t *testing.T) {
	cfg := syntheticConfig(t)
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "model.born")

	rec, err := Run(cfg)
	require.NoError(t, err)

	acc := rec[metrics.Accuracy]
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)
	assert.Equal(t, 1.0, rec[metrics.Epochs])
	assert.Contains(t, rec, metrics.TrainLoss)

	onDisk, err := metrics.ReadFile(cfg.MetricsPath)
	require.NoError(t, err)
	assert.Equal(t, rec, onDisk)

	backend := autodiff.New(cpu.New())
	restored, err := model.New(model.KindCNN, syntheticShape, syntheticClasses, backend)
	require.NoError(t, err)
	header, err := nn.Load(cfg.CheckpointPath, backend, restored)
	require.NoError(t, err)
	assert.Equal(t, config.ModelCNN, header.ModelType)
	assert.Equal(t, config.DatasetSynthetic, header.Metadata["dataset"])
}

func TestRunZeroEpochs(t *testing.T) {
	cfg := syntheticConfig(t)
	cfg.Epochs = 0
	cfg.Optimizer = config.OptimizerSGD

	rec, err := Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec[metrics.Epochs])
	assert.NotContains(t, rec, metrics.TrainLoss)
	assert.Contains(t, rec, metrics.Accuracy)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := syntheticConfig(t)
	cfg.BatchSize = 0
	_, err := Run(cfg)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunMissingData(t *testing.T) {
	cfg := syntheticConfig(t)
	cfg.Dataset = config.DatasetMNIST
	cfg.DataDir = t.TempDir()
	_, err := Run(cfg)
	require.Error(t, err)
}

func TestLoadSplitsSynthetic(t *testing.T) {
	cfg := syntheticConfig(t)
	trainSet, testSet, err := LoadSplits(cfg)
	require.NoError(t, err)
	assert.Equal(t, 40, trainSet.Len())
	assert.Equal(t, 8, testSet.Len())
	assert.Equal(t, syntheticShape, trainSet.Shape())
	assert.Equal(t, syntheticClasses, testSet.NumClasses())
}

// writeSortedDistilled writes perClass 1x2x2 images for each of classes
// labels to a .safetensors file, grouped by label.
func writeSortedDistilled(t *testing.T, classes, perClass int) string {
	t.Helper()
	n := classes * perClass
	var images []float32
	var labels []int32
	for c := 0; c < classes; c++ {
		for i := 0; i < perClass; i++ {
			images = append(images, float32(c), float32(i), 0, 1)
			labels = append(labels, int32(c))
		}
	}
	imgBytes := len(images) * 4
	header := map[string]any{
		"images":       map[string]any{"dtype": "F32", "shape": []int{n, 1, 2, 2}, "data_offsets": []int{0, imgBytes}},
		"labels":       map[string]any{"dtype": "I32", "shape": []int{n}, "data_offsets": []int{imgBytes, imgBytes + n*4}},
		"__metadata__": map[string]string{"num_classes": "10"},
	}
	hdr, err := json.Marshal(header)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(hdr))))
	buf.Write(hdr)
	for _, v := range images {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)))
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, labels))

	path := filepath.Join(t.TempDir(), "sorted.safetensors")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestLoadSplitsDistilledHoldoutCoversEveryClass(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset = config.DatasetDistilled
	cfg.DataDir = writeSortedDistilled(t, 10, 5)

	trainSet, testSet, err := LoadSplits(cfg)
	require.NoError(t, err)
	assert.Equal(t, 40, trainSet.Len())
	assert.Equal(t, 10, testSet.Len())
	for c, n := range dataset.ClassCounts(trainSet) {
		assert.Positive(t, n, "train class %d", c)
	}
	for c, n := range dataset.ClassCounts(testSet) {
		assert.Positive(t, n, "test class %d", c)
	}
}

func TestLoadSplitsDistilledSamplesEveryClass(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset = config.DatasetDistilled
	cfg.DataDir = writeSortedDistilled(t, 10, 5)
	cfg.MaxSamples = 20

	trainSet, testSet, err := LoadSplits(cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, trainSet.Len()+testSet.Len())
	for c, n := range dataset.ClassCounts(trainSet) {
		assert.Equal(t, 1, n, "train class %d", c)
	}
	for c, n := range dataset.ClassCounts(testSet) {
		assert.Equal(t, 1, n, "test class %d", c)
	}
}

func TestNewOptimizer(t *testing.T) {
	backend := autodiff.New(cpu.New())
	net, err := model.New(model.KindCNN, []int{1, 8, 8}, 2, backend)
	require.NoError(t, err)

	cfg := config.Default()
	opt, err := NewOptimizer(cfg, net.Parameters(), backend)
	require.NoError(t, err)
	assert.InDelta(t, cfg.LearningRate, float64(opt.GetLR()), 1e-9)

	cfg.Optimizer = config.OptimizerSGD
	cfg.LearningRate = 0.1
	opt, err = NewOptimizer(cfg, net.Parameters(), backend)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, float64(opt.GetLR()), 1e-7)

	cfg.Optimizer = "lbfgs"
	_, err = NewOptimizer(cfg, net.Parameters(), backend)
	require.Error(t, err)
}
