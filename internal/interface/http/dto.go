package handlers

import (
	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,pwd"`
}

// createUserRequest is the JSON body of POST /api/admin.
type createUserRequest struct {
	Name     string                `json:"name" binding:"required,personname"`
	Lastname string                `json:"lastname" binding:"max=30"`
	Age      int                   `json:"age" binding:"gte=0,lte=150"`
	Email    string                `json:"email" binding:"required,email,max=255"`
	Password string                `json:"password" binding:"required,pwd"`
	Roles    []application.RoleRef `json:"role" binding:"omitempty,dive"`
}

func (r createUserRequest) toEntity() *entity.User {
	u := &entity.User{Name: r.Name, Lastname: r.Lastname, Age: r.Age, Email: r.Email, Password: r.Password}
	for _, ref := range r.Roles {
		u.Roles = append(u.Roles, entity.Role{ID: ref.ID})
	}
	return u
}

// userForm is the admin page add form.
type userForm struct {
	Name     string  `form:"name" binding:"required,personname"`
	Lastname string  `form:"lastname" binding:"max=30"`
	Age      int     `form:"age" binding:"gte=0,lte=150"`
	Email    string  `form:"email" binding:"required,email,max=255"`
	Password string  `form:"password" binding:"required,pwd"`
	Roles    []int64 `form:"roles" binding:"omitempty,dive,gt=0"`
}

func (f userForm) toEntity() *entity.User {
	return formUser(0, f.Name, f.Lastname, f.Age, f.Email, f.Password, f.Roles)
}

// editForm is one row of the admin user table. An empty password keeps
// the stored one.
type editForm struct {
	ID       int64   `form:"id" binding:"required,gt=0"`
	Name     string  `form:"name" binding:"required,personname"`
	Lastname string  `form:"lastname" binding:"max=30"`
	Age      int     `form:"age" binding:"gte=0,lte=150"`
	Email    string  `form:"email" binding:"required,email,max=255"`
	Password string  `form:"password" binding:"omitempty,pwd"`
	Roles    []int64 `form:"roles" binding:"omitempty,dive,gt=0"`
}

func (f editForm) toEntity() *entity.User {
	return formUser(f.ID, f.Name, f.Lastname, f.Age, f.Email, f.Password, f.Roles)
}

type idForm struct {
	ID int64 `form:"id" binding:"required,gt=0"`
}

type roleRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

func formUser(id int64, name, lastname string, age int, email, password string, roles []int64) *entity.User {
	u := &entity.User{ID: id, Name: name, Lastname: lastname, Age: age, Email: email, Password: password}
	for _, rid := range roles {
		u.Roles = append(u.Roles, entity.Role{ID: rid})
	}
	return u
}
