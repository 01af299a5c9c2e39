package mongostore

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Tsukikage7/employee-service/employee"
)

// document 员工集合中的文档.
type document struct {
	ID          bson.ObjectID `bson:"_id"`
	Name        string        `bson:"name"`
	Address     string        `bson:"address"`
	Email       string        `bson:"email"`
	Phone       string        `bson:"phone"`
	CreatedTime time.Time     `bson:"created_time"`
	UpdatedTime time.Time     `bson:"updated_time"`
}

func toDocument(e *employee.Employee, id bson.ObjectID, now time.Time) document {
	return document{
		ID:          id,
		Name:        e.Name().FullName(),
		Address:     e.Address(),
		Email:       e.Email(),
		Phone:       e.Phone(),
		CreatedTime: now,
		UpdatedTime: now,
	}
}

// detailsUpdate 整体替换可变字段，保留创建时间.
func detailsUpdate(e *employee.Employee, now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: e.Name().FullName()},
		{Key: "address", Value: e.Address()},
		{Key: "email", Value: e.Email()},
		{Key: "phone", Value: e.Phone()},
		{Key: "updated_time", Value: now},
	}}}
}

func (d *document) toDomain() (*employee.Employee, error) {
	name, err := employee.NewName(d.Name)
	if err != nil {
		return nil, fmt.Errorf("mongostore: 员工 %s 数据损坏: %w", d.ID.Hex(), err)
	}
	return employee.Restore(FormatID(d.ID), name, d.Address, d.Email, d.Phone), nil
}

// FormatID 将 ObjectID 转换为员工标识.
func FormatID(id bson.ObjectID) employee.ID {
	return employee.ID(id.Hex())
}

// ParseID 解析员工标识，只接受 24 位十六进制 ObjectID.
func ParseID(id employee.ID) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(string(id))
	if err != nil || oid.IsZero() {
		return bson.ObjectID{}, false
	}
	return oid, true
}

func idFilter(id bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}
