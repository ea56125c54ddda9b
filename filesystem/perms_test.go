package filesystem

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "750", want: "rwxr-x---"},
		{in: "0750", want: "rwxr-x---"},
		{in: "644", want: "rw-r--r--"},
		{in: "000", want: "---------"},
		{in: "777", want: "rwxrwxrwx"},
		{in: "rwxr-x---", want: "rwxr-x---"},
		{in: "r--r--r--", want: "r--r--r--"},
		{in: "", wantErr: true},
		{in: "75", wantErr: true},
		{in: "1750", wantErr: true},
		{in: "00750", wantErr: true},
		{in: "758", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "rwxr-x--", wantErr: true},
		{in: "xwrr-x---", wantErr: true},
		{in: "rwxr-x--Z", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			perms, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, perms.String())
		})
	}
}

func TestPerms_Mode(t *testing.T) {
	p := PermsFromMode(0o750)
	assert.Equal(t, Perms{Owner: 7, Group: 5, Others: 0}, p)
	assert.Equal(t, uint32(0o750), p.Mode())
	assert.Equal(t, "rwxr-xr--", DefaultFolderPerms.String())
	assert.Equal(t, "rw-r--r--", DefaultFilePerms.String())
}

func TestPerms_JSON(t *testing.T) {
	data, err := json.Marshal(struct{ P Perms }{PermsFromMode(0o640)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"P":"rw-r-----"}`, string(data))

	var out struct{ P Perms }
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, PermsFromMode(0o640), out.P)

	assert.Error(t, json.Unmarshal([]byte(`{"P":"bogus"}`), &out))
}

func TestCheckPermission(t *testing.T) {
	node := NewFile("f.txt", "alice", nil, testTime)
	node.Perms = PermsFromMode(0o640) // rw-r-----

	alice := Actor{Name: "alice"}
	bob := Actor{Name: "bob"}
	staff := Actor{Name: "carol", Privileged: true}

	tests := []struct {
		name   string
		actor  Actor
		admin  bool
		access Access
		want   bool
	}{
		{"owner read", alice, false, Read, true},
		{"owner write", alice, false, Write, true},
		{"owner execute", alice, false, Execute, false},
		{"group read", staff, false, Read, true},
		{"group write", staff, false, Write, false},
		{"others read", bob, false, Read, false},
		{"admin bypasses", bob, true, Execute, true},
		{"privileged owner uses owner triple", Actor{Name: "alice", Privileged: true}, false, Write, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPermission(node, tt.access, tt.actor, tt.admin))
		})
	}
}

func TestCheckPermission_AdminAlwaysSucceeds(t *testing.T) {
	node := NewFolder("locked", "root", testTime)
	node.Perms = PermsFromMode(0)
	for _, access := range []Access{Read, Write, Execute} {
		assert.True(t, CheckPermission(node, access, Actor{Name: "anyone"}, true), access.String())
	}
}
