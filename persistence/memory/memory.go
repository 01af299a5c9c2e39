// Package memory 提供进程内的员工存储后端.
//
// 每个事务在 Begin 时获得存储的快照副本，Commit 时原子地合并回存储.
// 用于本地运行与测试，支持注入开启与提交失败.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/uow"
)

// Stats 存储调用统计.
type Stats struct {
	Begins    int
	Commits   int
	Rollbacks int
	Closes    int
	// Calls 仓储方法调用次数.
	Calls int
}

// Store 进程内存储.
type Store struct {
	mu        sync.Mutex
	seq       uint64
	employees map[employee.ID]*employee.Employee
	stats     Stats
	beginErr  error
	commitErr error
}

// NewStore 创建空存储.
func NewStore() *Store {
	return &Store{employees: make(map[employee.ID]*employee.Employee)}
}

// FailBegins 之后的 Begin 返回 err，传入 nil 恢复正常.
func (s *Store) FailBegins(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginErr = err
}

// FailCommits 之后的 Commit 返回 err 且不写入任何数据，传入 nil 恢复正常.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// Stats 返回调用统计快照.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Len 返回已提交的员工数量.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.employees)
}

// Begin 实现 uow.Driver.
func (s *Store) Begin(ctx context.Context) (uow.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Begins++
	if s.beginErr != nil {
		return nil, s.beginErr
	}

	working := make(map[employee.ID]*employee.Employee, len(s.employees))
	for id, e := range s.employees {
		working[id] = e.Clone()
	}

	t := &tx{
		store:   s,
		working: working,
		added:   make(map[employee.ID]struct{}),
		dirty:   make(map[employee.ID]struct{}),
		deleted: make(map[employee.ID]struct{}),
	}
	t.repo = &repository{tx: t}
	return t, nil
}

// Ping 实现健康检查.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) nextID() employee.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return employee.ID(strconv.FormatUint(s.seq, 10))
}

func (s *Store) countCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Calls++
}

type tx struct {
	store   *Store
	repo    *repository
	working map[employee.ID]*employee.Employee
	added   map[employee.ID]struct{}
	dirty   map[employee.ID]struct{}
	deleted map[employee.ID]struct{}
}

func (t *tx) Employees() employee.Repository { return t.repo }

func (t *tx) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Commits++
	if s.commitErr != nil {
		return s.commitErr
	}

	merged := make(map[employee.ID]*employee.Employee, len(s.employees)+len(t.dirty))
	for id, e := range s.employees {
		merged[id] = e
	}
	for id := range t.deleted {
		delete(merged, id)
	}
	for id := range t.dirty {
		e, ok := t.working[id]
		if !ok {
			continue
		}
		// 快照之后已被其他事务删除的行，更新影响 0 行.
		if _, fresh := t.added[id]; !fresh {
			if _, live := s.employees[id]; !live {
				continue
			}
		}
		merged[id] = e.Clone()
	}
	if err := checkUniqueEmails(merged); err != nil {
		return err
	}

	s.employees = merged
	return nil
}

func (t *tx) Rollback(context.Context) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Rollbacks++
	return nil
}

func (t *tx) Close(context.Context) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Closes++
	t.working = nil
}

func checkUniqueEmails(employees map[employee.ID]*employee.Employee) error {
	seen := make(map[string]employee.ID, len(employees))
	for id, e := range employees {
		if other, ok := seen[e.Email()]; ok && other != id {
			return duplicateEmail(e.Email())
		}
		seen[e.Email()] = id
	}
	return nil
}

func duplicateEmail(email string) error {
	return fmt.Errorf("memory: 邮箱 %s 已被占用: %w", email, employee.ErrDuplicateEmail)
}

// repository 事务内的员工仓储，读写只作用于事务副本.
type repository struct {
	tx *tx
}

func (r *repository) enter(ctx context.Context) error {
	r.tx.store.countCall()
	return ctx.Err()
}

func (r *repository) emailTaken(email string, self employee.ID) bool {
	for id, e := range r.tx.working {
		if id != self && e.Email() == email {
			return true
		}
	}
	return false
}

func (r *repository) Add(ctx context.Context, e *employee.Employee) error {
	if err := r.enter(ctx); err != nil {
		return err
	}
	if r.emailTaken(e.Email(), "") {
		return duplicateEmail(e.Email())
	}

	id := r.tx.store.nextID()
	e.AssignID(id)
	r.tx.working[id] = e.Clone()
	r.tx.added[id] = struct{}{}
	r.tx.dirty[id] = struct{}{}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id employee.ID) (*employee.Employee, error) {
	if err := r.enter(ctx); err != nil {
		return nil, err
	}
	e, ok := r.tx.working[id]
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

func (r *repository) GetList(ctx context.Context) ([]*employee.Employee, error) {
	if err := r.enter(ctx); err != nil {
		return nil, err
	}

	list := make([]*employee.Employee, 0, len(r.tx.working))
	for _, e := range r.tx.working {
		list = append(list, e.Clone())
	}
	slices.SortFunc(list, func(a, b *employee.Employee) int {
		return compareIDs(a.ID(), b.ID())
	})
	return list, nil
}

func (r *repository) Update(ctx context.Context, e *employee.Employee) error {
	if err := r.enter(ctx); err != nil {
		return err
	}
	if _, ok := r.tx.working[e.ID()]; !ok {
		return nil
	}
	if r.emailTaken(e.Email(), e.ID()) {
		return duplicateEmail(e.Email())
	}

	r.tx.working[e.ID()] = e.Clone()
	r.tx.dirty[e.ID()] = struct{}{}
	return nil
}

func (r *repository) Delete(ctx context.Context, id employee.ID) (int64, error) {
	if err := r.enter(ctx); err != nil {
		return 0, err
	}
	if _, ok := r.tx.working[id]; !ok {
		return 0, nil
	}

	delete(r.tx.working, id)
	delete(r.tx.added, id)
	delete(r.tx.dirty, id)
	r.tx.deleted[id] = struct{}{}
	return 1, nil
}

// compareIDs 按数值顺序比较十进制标识.
func compareIDs(a, b employee.ID) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

var (
	_ uow.Driver          = (*Store)(nil)
	_ employee.Repository = (*repository)(nil)
)
