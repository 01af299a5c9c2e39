// Package mongostore 基于 MongoDB 会话与多文档事务的员工存储后端.
//
// 多文档事务要求副本集或分片集群部署.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/storage/mongodb"
	"github.com/Tsukikage7/employee-service/uow"
)

// CollectionName 员工集合名.
const CollectionName = "employees"

// Store 文档库后端.
type Store struct {
	client *mongodb.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewStore 创建文档库后端.
func NewStore(client *mongodb.Client) *Store {
	return &Store{
		client: client,
		coll:   client.Collection(CollectionName),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes 创建邮箱唯一索引.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return s.client.EnsureIndexes(ctx, CollectionName, mongodb.Index{
		Name:   "uk_email",
		Keys:   bson.D{{Key: "email", Value: 1}},
		Unique: true,
	})
}

// Begin 实现 uow.Driver，开启会话并启动事务.
func (s *Store) Begin(ctx context.Context) (uow.Tx, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("mongostore: 开启会话失败: %w", err)
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongostore: 开启事务失败: %w", err)
	}

	return &mongoTx{
		sess: sess,
		repo: &repository{coll: s.coll, sess: sess, now: s.now},
	}, nil
}

type mongoTx struct {
	sess *mongo.Session
	repo *repository
}

func (t *mongoTx) Employees() employee.Repository { return t.repo }

func (t *mongoTx) Commit(ctx context.Context) error {
	return t.sess.CommitTransaction(ctx)
}

func (t *mongoTx) Rollback(ctx context.Context) error {
	return t.sess.AbortTransaction(ctx)
}

// Close 结束会话，仍在进行的事务由驱动中止.
func (t *mongoTx) Close(ctx context.Context) {
	t.sess.EndSession(ctx)
}

// collection 仓储用到的集合操作，由 *mongo.Collection 实现.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

// repository 会话内的员工仓储，所有操作都绑定到同一事务.
type repository struct {
	coll collection
	sess *mongo.Session
	now  func() time.Time
}

func (r *repository) bind(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, r.sess)
}

func (r *repository) Add(ctx context.Context, e *employee.Employee) error {
	doc := toDocument(e, bson.NewObjectID(), r.now())
	if _, err := r.coll.InsertOne(r.bind(ctx), doc); err != nil {
		return translate(err)
	}
	e.AssignID(FormatID(doc.ID))
	return nil
}

func (r *repository) GetByID(ctx context.Context, id employee.ID) (*employee.Employee, error) {
	oid, ok := ParseID(id)
	if !ok {
		return nil, nil
	}

	var doc document
	err := r.coll.FindOne(r.bind(ctx), idFilter(oid)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *repository) GetList(ctx context.Context) ([]*employee.Employee, error) {
	sctx := r.bind(ctx)
	cursor, err := r.coll.Find(sctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var docs []document
	if err := cursor.All(sctx, &docs); err != nil {
		return nil, err
	}

	list := make([]*employee.Employee, 0, len(docs))
	for i := range docs {
		e, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, e *employee.Employee) error {
	oid, ok := ParseID(e.ID())
	if !ok {
		return nil
	}
	_, err := r.coll.UpdateOne(r.bind(ctx), idFilter(oid), detailsUpdate(e, r.now()))
	return translate(err)
}

func (r *repository) Delete(ctx context.Context, id employee.ID) (int64, error) {
	oid, ok := ParseID(id)
	if !ok {
		return 0, nil
	}
	result, err := r.coll.DeleteOne(r.bind(ctx), idFilter(oid))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func translate(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("mongostore: %w: %w", employee.ErrDuplicateEmail, err)
	}
	return err
}

var (
	_ collection          = (*mongo.Collection)(nil)
	_ uow.Driver          = (*Store)(nil)
	_ employee.Repository = (*repository)(nil)
)
