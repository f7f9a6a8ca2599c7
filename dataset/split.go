package dataset

import (
	"fmt"

	"github.com/rushteam/streamrec/core"
)

// 默认切分比例：30% 冷启动训练，20% 批量评估，剩余 50% 作为增量评估流。
const (
	DefaultTrainRatio = 0.3
	DefaultTestRatio  = 0.2
)

// Split 按输入顺序把事件切成 train / test / stream 三段，不打乱。
// trainRatio + testRatio 必须在 [0, 1] 内。
func Split(events []core.Event, trainRatio, testRatio float64) (train, test, stream []core.Event, err error) {
	if trainRatio < 0 || testRatio < 0 || trainRatio+testRatio > 1 {
		return nil, nil, nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dataset: invalid split ratios train=%v test=%v", trainRatio, testRatio))
	}
	n := len(events)
	nTrain := int(float64(n) * trainRatio)
	nTest := int(float64(n) * testRatio)
	return events[:nTrain:nTrain], events[nTrain : nTrain+nTest : nTrain+nTest], events[nTrain+nTest:], nil
}
