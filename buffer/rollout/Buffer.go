// Package rollout implements an on-policy buffer of transitions
// collected between two policy updates.
package rollout

import "fmt"

// Transition is a single step of interaction with an environment
// together with the log probability of the action under the policy
// and the value estimate of the state
type Transition struct {
	State   []float64
	Action  []float64
	Reward  float64
	Done    bool
	LogProb float64
	Value   float64
}

// Buffer stores transitions in the order they were added. Column
// accessors return views into the backing storage that are only valid
// until the next call to Add or Empty.
type Buffer struct {
	obsSize    int
	actionSize int
	maxSize    int
	currentPos int

	obsBuffer     []float64
	actBuffer     []float64
	rewBuffer     []float64
	doneBuffer    []float64
	logProbBuffer []float64
	valBuffer     []float64
}

// New creates and returns a new Buffer holding at most capacity
// transitions with obsDim dimensional states and actDim dimensional
// actions
func New(obsDim, actDim, capacity int) (*Buffer, error) {
	if obsDim <= 0 || actDim <= 0 || capacity <= 0 {
		return nil, fmt.Errorf("new: dimensions and capacity must be "+
			"positive, got (%v, %v, %v)", obsDim, actDim, capacity)
	}

	return &Buffer{
		obsSize:       obsDim,
		actionSize:    actDim,
		maxSize:       capacity,
		obsBuffer:     make([]float64, capacity*obsDim),
		actBuffer:     make([]float64, capacity*actDim),
		rewBuffer:     make([]float64, capacity),
		doneBuffer:    make([]float64, capacity),
		logProbBuffer: make([]float64, capacity),
		valBuffer:     make([]float64, capacity),
	}, nil
}

// Add appends a transition to the buffer
func (b *Buffer) Add(t Transition) error {
	if b.currentPos >= b.maxSize {
		return &RolloutError{Op: "add", Err: ErrBufferFull}
	}
	if len(t.State) != b.obsSize {
		return fmt.Errorf("add: illegal state length \n\twant(%v)"+
			"\n\thave(%v)", b.obsSize, len(t.State))
	}
	if len(t.Action) != b.actionSize {
		return fmt.Errorf("add: illegal action length \n\twant(%v)"+
			"\n\thave(%v)", b.actionSize, len(t.Action))
	}

	start := b.currentPos * b.obsSize
	copy(b.obsBuffer[start:start+b.obsSize], t.State)

	start = b.currentPos * b.actionSize
	copy(b.actBuffer[start:start+b.actionSize], t.Action)

	b.rewBuffer[b.currentPos] = t.Reward
	b.doneBuffer[b.currentPos] = 0
	if t.Done {
		b.doneBuffer[b.currentPos] = 1
	}
	b.logProbBuffer[b.currentPos] = t.LogProb
	b.valBuffer[b.currentPos] = t.Value
	b.currentPos++

	return nil
}

// Len returns the number of transitions in the buffer
func (b *Buffer) Len() int {
	return b.currentPos
}

// Capacity returns the maximum number of transitions in the buffer
func (b *Buffer) Capacity() int {
	return b.maxSize
}

// Empty removes all transitions from the buffer
func (b *Buffer) Empty() {
	b.currentPos = 0
}

// States returns the stored states in row major order
func (b *Buffer) States() []float64 {
	return b.obsBuffer[:b.currentPos*b.obsSize]
}

// Actions returns the stored actions in row major order
func (b *Buffer) Actions() []float64 {
	return b.actBuffer[:b.currentPos*b.actionSize]
}

// Rewards returns the stored rewards
func (b *Buffer) Rewards() []float64 {
	return b.rewBuffer[:b.currentPos]
}

// Dones returns the stored episode termination flags, 1 for the last
// step of an episode and 0 otherwise
func (b *Buffer) Dones() []float64 {
	return b.doneBuffer[:b.currentPos]
}

// LogProbs returns the stored log probabilities of actions
func (b *Buffer) LogProbs() []float64 {
	return b.logProbBuffer[:b.currentPos]
}

// Values returns the stored state value estimates
func (b *Buffer) Values() []float64 {
	return b.valBuffer[:b.currentPos]
}

// Transition returns a copy of the i-th stored transition
func (b *Buffer) Transition(i int) Transition {
	if i < 0 || i >= b.currentPos {
		panic(fmt.Sprintf("transition: index %v out of range [0, %v)", i,
			b.currentPos))
	}

	obs := b.obsBuffer[i*b.obsSize : (i+1)*b.obsSize]
	act := b.actBuffer[i*b.actionSize : (i+1)*b.actionSize]
	return Transition{
		State:   append([]float64(nil), obs...),
		Action:  append([]float64(nil), act...),
		Reward:  b.rewBuffer[i],
		Done:    b.doneBuffer[i] == 1,
		LogProb: b.logProbBuffer[i],
		Value:   b.valBuffer[i],
	}
}
