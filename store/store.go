// Package store 提供 core.Store 的实现：内存、Redis、Badger。
//
// 接口定义在 core 包，此包只包含实现：
//
//	var s core.Store = store.NewMemoryStore()
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store

import "github.com/rushteam/musicrec/core"

// ErrNotFound 是 core.ErrStoreNotFound 的别名，便于实现内部引用。
var ErrNotFound = core.ErrStoreNotFound
