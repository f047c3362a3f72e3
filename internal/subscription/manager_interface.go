package subscription

import "github.com/VitaminP8/alumni-forum/internal/model"

type Manager interface {
	Subscribe(postID uint) (<-chan *model.Reply, func())
	Publish(postID uint, reply *model.Reply)
}
