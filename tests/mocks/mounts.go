package mocks

import (
	"github.com/immutos/remount/pkg/mount"
)

// RemountCall records one mutation performed through the fake table.
type RemountCall struct {
	Target   string
	Readonly bool
}

// FakeTable is an in-memory mount table implementing both mount.Inspector
// and mount.Mounter. Remounts update the table, so idempotence is
// observable exactly like on a real system.
type FakeTable struct {
	Entries map[string]mount.Inspection

	Remounts []RemountCall
	Binds    []string
	Privates []string

	// RemountErr injects a per-target remount failure.
	RemountErr map[string]error
	BindErr    error
	PrivateErr error
}

func NewFakeTable() *FakeTable {
	return &FakeTable{
		Entries:    map[string]mount.Inspection{},
		RemountErr: map[string]error{},
	}
}

func (f *FakeTable) WithMount(path string, readonly bool) *FakeTable {
	f.Entries[path] = mount.Inspection{Status: mount.StatusMounted, ReadOnly: readonly}
	return f
}

func (f *FakeTable) WithSymlink(path string) *FakeTable {
	f.Entries[path] = mount.Inspection{Status: mount.StatusSymlink}
	return f
}

func (f *FakeTable) Inspect(path string) mount.Inspection {
	in, ok := f.Entries[path]
	if !ok {
		return mount.Inspection{Status: mount.StatusNotMounted}
	}
	return in
}

func (f *FakeTable) Remount(target string, readonly bool) error {
	if err := f.RemountErr[target]; err != nil {
		return err
	}
	f.Remounts = append(f.Remounts, RemountCall{Target: target, Readonly: readonly})
	f.Entries[target] = mount.Inspection{Status: mount.StatusMounted, ReadOnly: readonly}
	return nil
}

func (f *FakeTable) BindSelf(target string) error {
	if f.BindErr != nil {
		return f.BindErr
	}
	f.Binds = append(f.Binds, target)
	return nil
}

func (f *FakeTable) MakeRecursivePrivate(target string) error {
	if f.PrivateErr != nil {
		return f.PrivateErr
	}
	f.Privates = append(f.Privates, target)
	return nil
}
