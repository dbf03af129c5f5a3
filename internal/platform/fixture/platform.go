package fixture

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

// Platform is the in-process view of a Backend for one credential source.
type Platform struct {
	b     *Backend
	creds httpx.CredentialProvider
}

var _ platform.Platform = (*Platform)(nil)

// Platform binds the backend to creds, mirroring how the live client is built.
func (b *Backend) Platform(creds httpx.CredentialProvider) *Platform {
	return &Platform{b: b, creds: creds}
}

func (p *Platform) caller(ctx context.Context) (string, error) {
	if p.creds == nil {
		return "", common.ErrNoCredential
	}
	token, err := p.creds.Credential(ctx)
	if err != nil || token == "" {
		return "", common.ErrNoCredential
	}
	return p.b.Authenticate(token)
}

func (p *Platform) ListObjects(ctx context.Context, collection string, limit int, cursor string) (*platform.ObjectList, error) {
	uid, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}
	return p.b.listObjects(uid, collection, limit, cursor)
}

func (p *Platform) WriteObjects(ctx context.Context, objects []platform.WriteObject) ([]platform.Ack, error) {
	uid, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}
	return p.b.writeObjects(uid, objects)
}

func (p *Platform) DeleteObjects(ctx context.Context, ids []platform.ObjectID) error {
	uid, err := p.caller(ctx)
	if err != nil {
		return err
	}
	return p.b.deleteObjects(uid, ids)
}

func (p *Platform) ListGroups(ctx context.Context, name string, limit int, cursor string) (*platform.GroupList, error) {
	if _, err := p.caller(ctx); err != nil {
		return nil, err
	}
	return p.b.listGroups(name, limit, cursor)
}

func (p *Platform) CreateGroup(ctx context.Context, req platform.CreateGroupRequest) (*platform.Group, error) {
	uid, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}
	return p.b.createGroup(uid, req)
}

func (p *Platform) JoinGroup(ctx context.Context, groupID string) error {
	uid, err := p.caller(ctx)
	if err != nil {
		return err
	}
	return p.b.joinGroup(uid, groupID)
}

func (p *Platform) UserGroups(ctx context.Context, userID string) (*platform.UserGroupList, error) {
	if _, err := p.caller(ctx); err != nil {
		return nil, err
	}
	return p.b.userGroups(userID)
}

func (p *Platform) GroupUsers(ctx context.Context, groupID string, limit int, state *int, cursor string) (*platform.GroupUserList, error) {
	if _, err := p.caller(ctx); err != nil {
		return nil, err
	}
	return p.b.groupUsers(groupID, limit, state, cursor)
}

// GetGroup needs no caller: in-process use stands in for the console key.
func (p *Platform) GetGroup(_ context.Context, groupID string) (*platform.Group, error) {
	return p.b.getGroup(groupID)
}

func (p *Platform) Account(ctx context.Context) (*platform.Account, error) {
	uid, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}
	return p.b.account(uid)
}

func (p *Platform) AuthenticateCustom(_ context.Context, id, username string, create bool) (*platform.Session, error) {
	return p.b.authenticateCustom(id, username, create)
}

func (p *Platform) RefreshSession(_ context.Context, refreshToken string) (*platform.Session, error) {
	return p.b.refresh(refreshToken)
}

func (p *Platform) Logout(ctx context.Context, token, refreshToken string) error {
	if _, err := p.caller(ctx); err != nil {
		return err
	}
	p.b.logout(token, refreshToken)
	return nil
}

func (p *Platform) RPC(ctx context.Context, id string, payload json.RawMessage, _ bool) (json.RawMessage, error) {
	uid, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return p.b.callRPC(ctx, uid, id, payload)
}
