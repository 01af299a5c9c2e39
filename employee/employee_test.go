package employee

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Tsukikage7/employee-service/domain"
)

type EmployeeTestSuite struct {
	suite.Suite
}

func TestEmployeeSuite(t *testing.T) {
	suite.Run(t, new(EmployeeTestSuite))
}

func fieldMessages(err error) []FieldError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Errors
	}
	return nil
}

func (s *EmployeeTestSuite) TestNewName() {
	tests := []struct {
		name    string
		input   string
		want    string
		wantMsg string
	}{
		{name: "普通姓名", input: "Ada Lovelace", want: "Ada Lovelace"},
		{name: "保留首尾空白", input: "  Ada Lovelace ", want: "  Ada Lovelace "},
		{name: "含空白恰好 50 字符", input: " " + strings.Repeat("a", 49), want: " " + strings.Repeat("a", 49)},
		{name: "恰好 50 字符", input: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "多字节字符按字符计数", input: strings.Repeat("李", 50), want: strings.Repeat("李", 50)},
		{name: "空串", input: "", wantMsg: MsgNameRequired},
		{name: "仅空白", input: " \t\n ", wantMsg: MsgNameRequired},
		{name: "超过 50 字符", input: strings.Repeat("a", 51), wantMsg: MsgNameTooLong},
		{name: "空白计入长度", input: " " + strings.Repeat("a", 50), wantMsg: MsgNameTooLong},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			n, err := NewName(tt.input)
			if tt.wantMsg != "" {
				s.Require().Error(err)
				s.True(IsValidationError(err))
				s.Equal([]FieldError{{Field: FieldName, Message: tt.wantMsg}}, fieldMessages(err))
				s.True(n.IsZero())
				return
			}
			s.Require().NoError(err)
			s.Equal(tt.want, n.FullName())
			s.Equal(tt.want, n.String())
		})
	}
}

func (s *EmployeeTestSuite) TestNameEquality() {
	s.Equal(MustNewName("Ada"), MustNewName("Ada"))
	s.NotEqual(MustNewName("Ada"), MustNewName(" Ada "))
	s.NotEqual(MustNewName("Ada"), MustNewName("Grace"))
	s.Panics(func() { MustNewName("") })
}

func (s *EmployeeTestSuite) TestNew() {
	e, err := New(MustNewName("Ada Lovelace"), "1 Analytical Engine Way", "ada@example.com", "555-0100")
	s.Require().NoError(err)
	s.True(e.IsTransient())
	s.Equal("Ada Lovelace", e.Name().FullName())
	s.Equal("1 Analytical Engine Way", e.Address())
	s.Equal("ada@example.com", e.Email())
	s.Equal("555-0100", e.Phone())
}

func (s *EmployeeTestSuite) TestNew_RequiredFields() {
	_, err := New(Name{}, " ", "", "")
	s.Require().Error(err)
	s.Equal([]FieldError{
		{Field: FieldName, Message: MsgNameRequired},
		{Field: FieldAddress, Message: MsgAddressRequired},
		{Field: FieldEmail, Message: MsgEmailRequired},
	}, fieldMessages(err))
}

func (s *EmployeeTestSuite) TestUpdateDetails() {
	e := Restore("7", MustNewName("Ada"), "addr", "ada@example.com", "")

	s.Require().NoError(e.UpdateDetails(MustNewName("Grace"), "new addr", "grace@example.com", "123"))
	s.Equal(ID("7"), e.ID())
	s.Equal("Grace", e.Name().FullName())
	s.Equal("new addr", e.Address())
	s.Equal("grace@example.com", e.Email())
	s.Equal("123", e.Phone())

	err := e.UpdateDetails(MustNewName("Hopper"), "", "x@example.com", "")
	s.Require().Error(err)
	s.Equal("Grace", e.Name().FullName(), "校验失败时保持原值")
}

func (s *EmployeeTestSuite) TestCloneAndIdentity() {
	e := Restore("7", MustNewName("Ada"), "addr", "ada@example.com", "")
	c := e.Clone()

	s.NotSame(e, c)
	s.True(e.SameFields(c))
	s.True(domain.SameIdentity[ID](e, c))

	s.Require().NoError(c.UpdateDetails(MustNewName("Grace"), "addr", "ada@example.com", ""))
	s.Equal("Ada", e.Name().FullName())
	s.False(e.SameFields(c))

	var nilEmp *Employee
	s.Nil(nilEmp.Clone())
}

func (s *EmployeeTestSuite) TestCreatedEvent() {
	e := Restore("1", MustNewName("Ada"), "addr", "ada@example.com", "")
	evt := NewCreatedEvent(e)

	s.Equal(CreatedEventName, evt.EventName())
	s.NotEmpty(evt.EventID())
	s.False(evt.OccurredTime().IsZero())

	s.Require().NoError(e.UpdateDetails(MustNewName("Changed"), "addr", "ada@example.com", ""))
	s.Equal("Ada", evt.Employee().Name().FullName(), "事件持有快照")
	s.Equal(ID("1"), evt.Employee().ID())
}

func TestRuleValidator(t *testing.T) {
	v := NewValidator()

	valid := Restore("", MustNewName("Ada"), "addr", "ada@example.com", "555-0100")
	require.NoError(t, v.Validate(valid))

	noPhone := Restore("", MustNewName("Ada"), "addr", "ada@example.com", "")
	require.NoError(t, v.Validate(noPhone))

	tests := []struct {
		name    string
		emp     *Employee
		field   string
		wantMsg string
	}{
		{
			name:    "邮箱格式",
			emp:     Restore("", MustNewName("Ada"), "addr", "not-an-email", ""),
			field:   FieldEmail,
			wantMsg: MsgEmailInvalid,
		},
		{
			name:    "邮箱为空",
			emp:     Restore("", MustNewName("Ada"), "addr", "", ""),
			field:   FieldEmail,
			wantMsg: MsgEmailRequired,
		},
		{
			name:    "地址过长",
			emp:     Restore("", MustNewName("Ada"), strings.Repeat("a", 101), "ada@example.com", ""),
			field:   FieldAddress,
			wantMsg: MsgAddressTooLong,
		},
		{
			name:    "电话过长",
			emp:     Restore("", MustNewName("Ada"), "addr", "ada@example.com", "1234567890123"),
			field:   FieldPhone,
			wantMsg: MsgPhoneTooLong,
		},
		{
			name:    "姓名为空",
			emp:     Restore("", Name{}, "addr", "ada@example.com", ""),
			field:   FieldName,
			wantMsg: MsgNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.emp)
			require.Error(t, err)
			assert.Equal(t, []FieldError{{Field: tt.field, Message: tt.wantMsg}}, fieldMessages(err))
		})
	}
}

func TestValidationError(t *testing.T) {
	var empty *ValidationError
	assert.False(t, empty.HasErrors())

	verr := NewValidationError(FieldName, MsgNameRequired)
	verr.Merge(NewValidationError(FieldEmail, MsgEmailInvalid))
	verr.Merge(nil)

	assert.Len(t, verr.Errors, 2)
	assert.Contains(t, verr.Error(), "Name: Name is required.")
	assert.Contains(t, verr.Error(), "Email: A valid email is required.")

	wrapped := errors.Join(errors.New("外层"), verr)
	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsValidationError(ErrDuplicateEmail))
}
