// Package metrics provides dashboard runtime metrics collection, statistics, and reporting.
// Package metrics 提供仪表盘运行时指标采集、统计和输出功能。
//
// Counters are updated atomically from the dashboard observer hooks and read
// as point-in-time snapshots, so collection never blocks a page load or a
// mutation.
//
// 计数器通过仪表盘观察者钩子原子更新，并以时间点快照的形式读取，
// 因此采集不会阻塞页面加载或变更。
package metrics

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/Humphrey-He/productdash/pkg/dashboard"
	"github.com/Humphrey-He/productdash/pkg/querycache"
)

// Level defines the metrics collection level.
// Level 定义指标采集级别。
type Level int

const (
	// Disabled means metrics collection is turned off.
	// Disabled 表示禁用指标采集。
	Disabled Level = iota

	// Basic enables collection of load and mutation counters.
	// Basic 启用加载和变更计数器的采集。
	Basic
)

// mutationKinds is the number of dashboard mutation kinds.
const mutationKinds = 3

// Metrics is a dashboard metrics collector. It implements dashboard.Observer.
// It uses atomic operations to ensure thread safety in high-concurrency environments.
//
// Metrics 是仪表盘指标收集器，实现了dashboard.Observer。
// 使用原子操作确保高并发环境下的线程安全。
type Metrics struct {
	level Level

	// Page loads sent to the remote service
	// 发送到远程服务的页面加载
	loads        atomic.Uint64
	loadFailures atomic.Uint64

	// Mutations by kind
	// 按类型统计的变更
	mutations        [mutationKinds]atomic.Uint64
	mutationFailures [mutationKinds]atomic.Uint64

	started     time.Time
	lastUpdated atomic.Int64
}

var _ dashboard.Observer = (*Metrics)(nil)

// New creates a new metrics collector.
//
// New 创建一个新的指标收集器。
//
// Parameters:
//   - level: Collection level; Disabled turns every record into a no-op
//
// Returns:
//   - *Metrics: A new metrics collector instance
func New(level Level) *Metrics {
	m := &Metrics{level: level, started: time.Now()}
	m.lastUpdated.Store(m.started.UnixNano())
	return m
}

// LoadDone records one list call for key.
//
// LoadDone 记录key的一次列表调用。
func (m *Metrics) LoadDone(key querycache.Key, err error) {
	if m.level == Disabled {
		return
	}
	m.loads.Add(1)
	if err != nil {
		m.loadFailures.Add(1)
	}
	m.touch()
}

// MutationDone records one create, update or delete call.
//
// MutationDone 记录一次创建、更新或删除调用。
func (m *Metrics) MutationDone(kind dashboard.MutationKind, err error) {
	if m.level == Disabled || kind < 0 || int(kind) >= mutationKinds {
		return
	}
	m.mutations[kind].Add(1)
	if err != nil {
		m.mutationFailures[kind].Add(1)
	}
	m.touch()
}

func (m *Metrics) touch() {
	m.lastUpdated.Store(time.Now().UnixNano())
}

// Snapshot is a point-in-time copy of the counters.
// Snapshot 是计数器的时间点副本。
type Snapshot struct {
	Loads            uint64            `json:"loads"`
	LoadFailures     uint64            `json:"load_failures"`
	Mutations        map[string]uint64 `json:"mutations"`
	MutationFailures map[string]uint64 `json:"mutation_failures"`
	Uptime           time.Duration     `json:"uptime"`
	LastUpdated      time.Time         `json:"last_updated"`
}

// GetSnapshot returns the current counters.
//
// GetSnapshot 返回当前计数器。
func (m *Metrics) GetSnapshot() *Snapshot {
	s := &Snapshot{
		Loads:            m.loads.Load(),
		LoadFailures:     m.loadFailures.Load(),
		Mutations:        make(map[string]uint64, mutationKinds),
		MutationFailures: make(map[string]uint64, mutationKinds),
		Uptime:           time.Since(m.started),
		LastUpdated:      time.Unix(0, m.lastUpdated.Load()),
	}
	for k := 0; k < mutationKinds; k++ {
		name := dashboard.MutationKind(k).String()
		s.Mutations[name] = m.mutations[k].Load()
		s.MutationFailures[name] = m.mutationFailures[k].Load()
	}
	return s
}

// ToJSON renders the snapshot as JSON.
//
// ToJSON 将快照渲染为JSON。
func (m *Metrics) ToJSON() ([]byte, error) {
	return json.Marshal(m.GetSnapshot())
}

// Reset zeroes every counter.
//
// Reset 将所有计数器清零。
func (m *Metrics) Reset() {
	m.loads.Store(0)
	m.loadFailures.Store(0)
	for k := 0; k < mutationKinds; k++ {
		m.mutations[k].Store(0)
		m.mutationFailures[k].Store(0)
	}
	m.touch()
}
