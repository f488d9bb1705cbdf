package repositories

import (
	"chat-dm/domain"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored in protobuf wire format so that a schema-aware reader
// (or a future generated message) can decode them:
//
//	message Message { uint64 id = 1; string sender_id = 2; string receiver_id = 3;
//	                  string text = 4; string image = 5; int64 created_at = 6; }
//	message User    { string id = 1; string full_name = 2; string email = 3;
//	                  string password_hash = 4; string profile_pic = 5;
//	                  repeated string roles = 6; int64 created_at = 7; }
const (
	fieldMessageID         protowire.Number = 1
	fieldMessageSenderID   protowire.Number = 2
	fieldMessageReceiverID protowire.Number = 3
	fieldMessageText       protowire.Number = 4
	fieldMessageImage      protowire.Number = 5
	fieldMessageCreatedAt  protowire.Number = 6

	fieldUserID           protowire.Number = 1
	fieldUserFullName     protowire.Number = 2
	fieldUserEmail        protowire.Number = 3
	fieldUserPasswordHash protowire.Number = 4
	fieldUserProfilePic   protowire.Number = 5
	fieldUserRoles        protowire.Number = 6
	fieldUserCreatedAt    protowire.Number = 7
)

func marshalMessage(m domain.Message) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMessageID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ID))
	b = appendString(b, fieldMessageSenderID, m.SenderID)
	b = appendString(b, fieldMessageReceiverID, m.ReceiverID)
	b = appendString(b, fieldMessageText, m.Text)
	b = appendString(b, fieldMessageImage, m.Image)
	b = protowire.AppendTag(b, fieldMessageCreatedAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.CreatedAt.UnixNano()))
	return b
}

func unmarshalMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldMessageID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.ID = domain.MessageID(v)
			return n, nil
		case num == fieldMessageCreatedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.CreatedAt = time.Unix(0, int64(v)).UTC()
			return n, nil
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			switch num {
			case fieldMessageSenderID:
				m.SenderID = string(v)
			case fieldMessageReceiverID:
				m.ReceiverID = string(v)
			case fieldMessageText:
				m.Text = string(v)
			case fieldMessageImage:
				m.Image = string(v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return m, err
}

func marshalUser(u User) []byte {
	var b []byte
	b = appendString(b, fieldUserID, u.ID)
	b = appendString(b, fieldUserFullName, u.FullName)
	b = appendString(b, fieldUserEmail, u.Email)
	b = appendString(b, fieldUserPasswordHash, u.PasswordHash)
	b = appendString(b, fieldUserProfilePic, u.ProfilePic)
	for _, role := range u.Roles {
		b = protowire.AppendTag(b, fieldUserRoles, protowire.BytesType)
		b = protowire.AppendString(b, role)
	}
	b = protowire.AppendTag(b, fieldUserCreatedAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(u.CreatedAt.Unix()))
	return b
}

func unmarshalUser(b []byte) (User, error) {
	var u User
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldUserCreatedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			u.CreatedAt = time.Unix(int64(v), 0).UTC()
			return n, nil
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			switch num {
			case fieldUserID:
				u.ID = string(v)
			case fieldUserFullName:
				u.FullName = string(v)
			case fieldUserEmail:
				u.Email = string(v)
			case fieldUserPasswordHash:
				u.PasswordHash = string(v)
			case fieldUserProfilePic:
				u.ProfilePic = string(v)
			case fieldUserRoles:
				u.Roles = append(u.Roles, string(v))
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return u, err
}

// Empty strings are omitted, as proto3 does for default values.
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}
