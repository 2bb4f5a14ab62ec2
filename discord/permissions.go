package discord

const (
	PermissionCreateInstantInvite   Int64 = 0x0000000000000001 // Allows creation of instant invites.
	PermissionKickMembers           Int64 = 0x0000000000000002 // Allows kicking members.
	PermissionBanMembers            Int64 = 0x0000000000000004 // Allows banning members.
	PermissionAdministrator         Int64 = 0x0000000000000008 // Allows all permissions and bypasses channel permission overwrites.
	PermissionManageChannels        Int64 = 0x0000000000000010 // Allows management and editing of channels.
	PermissionManageServer          Int64 = 0x0000000000000020 // Allows management and editing of the guild.
	PermissionAddReactions          Int64 = 0x0000000000000040 // Allows for the addition of reactions to messages.
	PermissionViewAuditLogs         Int64 = 0x0000000000000080 // Allows for viewing of audit logs.
	PermissionVoicePrioritySpeaker  Int64 = 0x0000000000000100 // Allows for using priority speaker in a voice channel.
	PermissionVoiceStreamVideo      Int64 = 0x0000000000000200 // Allows the user to go live.
	PermissionViewChannel           Int64 = 0x0000000000000400 // Allows guild members to view a channel.
	PermissionSendMessages          Int64 = 0x0000000000000800 // Allows for sending messages in a channel.
	PermissionSendTTSMessages       Int64 = 0x0000000000001000 // Allows for sending of /tts messages.
	PermissionManageMessages        Int64 = 0x0000000000002000 // Allows for deletion of other users messages.
	PermissionEmbedLinks            Int64 = 0x0000000000004000 // Links sent by users with this permission will be auto-embedded.
	PermissionAttachFiles           Int64 = 0x0000000000008000 // Allows for uploading images and files.
	PermissionReadMessageHistory    Int64 = 0x0000000000010000 // Allows for reading of message history.
	PermissionMentionEveryone       Int64 = 0x0000000000020000 // Allows for using the @everyone and @here tags.
	PermissionUseExternalEmojis     Int64 = 0x0000000000040000 // Allows the usage of custom emojis from other servers.
	PermissionViewGuildInsights     Int64 = 0x0000000000080000 // Allows for viewing guild insights.
	PermissionVoiceConnect          Int64 = 0x0000000000100000 // Allows for joining of a voice channel.
	PermissionVoiceSpeak            Int64 = 0x0000000000200000 // Allows for speaking in a voice channel.
	PermissionVoiceMuteMembers      Int64 = 0x0000000000400000 // Allows for muting members in a voice channel.
	PermissionVoiceDeafenMembers    Int64 = 0x0000000000800000 // Allows for deafening of members in a voice channel.
	PermissionVoiceMoveMembers      Int64 = 0x0000000001000000 // Allows for moving of members between voice channels.
	PermissionVoiceUseVAD           Int64 = 0x0000000002000000 // Allows for using voice-activity-detection in a voice channel.
	PermissionChangeNickname        Int64 = 0x0000000004000000 // Allows for modification of own nickname.
	PermissionManageNicknames       Int64 = 0x0000000008000000 // Allows for modification of other users nicknames.
	PermissionManageRoles           Int64 = 0x0000000010000000 // Allows management and editing of roles.
	PermissionManageWebhooks        Int64 = 0x0000000020000000 // Allows management and editing of webhooks.
	PermissionManageEmojis          Int64 = 0x0000000040000000 // Allows management and editing of emojis and stickers.
	PermissionUseSlashCommands      Int64 = 0x0000000080000000 // Allows members to use application commands.
	PermissionVoiceRequestToSpeak   Int64 = 0x0000000100000000 // Allows for requesting to speak in stage channels.
	PermissionManageEvents          Int64 = 0x0000000200000000 // Allows for creating, editing, and deleting scheduled events.
	PermissionManageThreads         Int64 = 0x0000000400000000 // Allows for deleting and archiving threads.
	PermissionCreatePublicThreads   Int64 = 0x0000000800000000 // Allows for creating public and announcement threads.
	PermissionCreatePrivateThreads  Int64 = 0x0000001000000000 // Allows for creating private threads.
	PermissionUseExternalStickers   Int64 = 0x0000002000000000 // Allows the usage of custom stickers from other servers.
	PermissionSendMessagesInThreads Int64 = 0x0000004000000000 // Allows for sending messages in threads.
	PermissionUseActivities         Int64 = 0x0000008000000000 // Allows for using Activities in a voice channel.
	PermissionModerateMembers       Int64 = 0x0000010000000000 // Allows for timing out users.
	PermissionViewMonetization      Int64 = 0x0000020000000000 // Allows for viewing role subscription insights.
	PermissionUseSoundboard         Int64 = 0x0000040000000000 // Allows for using soundboard in a voice channel.
	PermissionCreateExpressions     Int64 = 0x0000080000000000 // Allows for creating emojis, stickers, and soundboard sounds.
	PermissionCreateEvents          Int64 = 0x0000100000000000 // Allows for creating scheduled events.
	PermissionUseExternalSounds     Int64 = 0x0000200000000000 // Allows the usage of custom soundboard sounds from other servers.
	PermissionSendVoiceMessages     Int64 = 0x0000400000000000 // Allows sending voice messages.

	PermissionNone Int64 = 0

	// PermissionAll is every permission bit currently defined.
	PermissionAll Int64 = PermissionSendVoiceMessages<<1 - 1
)

// Has reports whether every bit in permission is set.
func (in Int64) Has(permission Int64) bool {
	return in&permission == permission
}
