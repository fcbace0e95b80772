package service

import (
	"tweetline/internal/config"
	"tweetline/internal/identity"
	"tweetline/internal/mailer"
	"tweetline/internal/repository"
	"tweetline/internal/storage"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Graph   GraphService
	Content ContentService
	Account AccountService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, mail mailer.Mailer, issuer *identity.Issuer) *Service {
	p := presenter{users: rep.User}
	return &Service{
		Auth:    NewAuthService(rep.User, storage, mail, issuer, cfg),
		User:    NewUserService(rep.User, rep.Tweet, storage, p),
		Graph:   NewGraphService(rep.User, rep.Follow),
		Content: NewContentService(rep.Tweet, rep.Comment, storage, p),
		Account: NewAccountService(rep, storage),
	}
}
